// Package resources lists, searches, renders and edits the farm records
// (bookings, vendors, orders, stock items) exposed by the backend.
package resources

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
)

// Column is one displayed field. Paths are gjson paths tried in order;
// the first non-empty value wins.
type Column struct {
	Header string
	Paths  []string
}

// Kind describes one record collection on the backend.
type Kind struct {
	Name     string
	Singular string
	Endpoint string
	Columns  []Column
}

func col(header string, paths ...string) Column {
	return Column{Header: header, Paths: paths}
}

var (
	Bookings = &Kind{
		Name:     "bookings",
		Singular: "booking",
		Endpoint: "/bookings/",
		Columns: []Column{
			col("ID", "id"),
			col("Title", "title"),
			col("Type", "booking_type"),
			col("Status", "status"),
			col("Start", "start_date"),
			col("End", "end_date"),
		},
	}

	Vendors = &Kind{
		Name:     "vendors",
		Singular: "vendor",
		Endpoint: "/vendors/",
		Columns: []Column{
			col("ID", "id"),
			col("Vendor", "vendor_name"),
			col("Contact", "contact_person"),
			col("Email", "email"),
			col("Phone", "phone"),
			col("GSTIN", "gstin_number"),
			col("Rating", "rating"),
		},
	}

	Orders = &Kind{
		Name:     "orders",
		Singular: "order",
		Endpoint: "/orders/",
		Columns: []Column{
			col("ID", "id"),
			col("Invoice", "invoice_number"),
			col("Vendor", "vendor_name"),
			col("Date", "invoice_date"),
			col("State", "state"),
			col("Items", "items.#"),
		},
	}

	Stock = &Kind{
		Name:     "stock",
		Singular: "stock item",
		Endpoint: "/stock/",
		Columns: []Column{
			col("ID", "id"),
			col("Item", "item_name"),
			col("Type", "item_type_display", "item_type"),
			col("Make", "make"),
			col("Year", "year_of_make"),
			col("Status", "status_display", "status"),
			col("Cost", "estimate_cost"),
		},
	}
)

var kinds = map[string]*Kind{
	"bookings": Bookings,
	"booking":  Bookings,
	"vendors":  Vendors,
	"vendor":   Vendors,
	"orders":   Orders,
	"order":    Orders,
	"stock":    Stock,
	"items":    Stock,
	"item":     Stock,
}

// Lookup returns the kind with the given name, singular or plural.
func Lookup(name string) (*Kind, error) {
	k, ok := kinds[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown resource %q (want one of %s)",
			apperrors.ErrValidation, name, strings.Join(Names(), ", "))
	}

	return k, nil
}

// Names returns the canonical kind names, sorted.
func Names() []string {
	seen := map[string]bool{}

	var names []string

	for _, k := range kinds {
		if !seen[k.Name] {
			seen[k.Name] = true
			names = append(names, k.Name)
		}
	}

	sort.Strings(names)

	return names
}

// itemEndpoint returns the endpoint of one record.
func (k *Kind) itemEndpoint(id string) string {
	return k.Endpoint + id + "/"
}
