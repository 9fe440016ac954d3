package procserver

import "fmt"

// Row is the record schema the processor expects in uploaded spreadsheets.
type Row struct {
	N         int     `csv:"n"`
	Name      string  `csv:"name"`
	Quantity  float64 `csv:"quantity"`
	UnitPrice float64 `csv:"unit_price"`
}

func (r *Row) Validate() error {
	if r.N == 0 {
		return fmt.Errorf("n is required")
	}

	if r.Name == "" {
		return fmt.Errorf("name is required")
	}

	if r.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}

	if r.UnitPrice < 0 {
		return fmt.Errorf("unit_price must not be negative")
	}

	return nil
}

func (r *Row) Total() float64 {
	return r.Quantity * r.UnitPrice
}
