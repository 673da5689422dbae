package mapping

import (
	"errors"
	"fmt"
	"sync"
)

// Internal field names a supplier column can map onto.
const (
	FieldSupplierSKU  = "supplier_sku"
	FieldTitle        = "title"
	FieldBrand        = "brand"
	FieldCategoryPath = "category_path"
	FieldPrice        = "price"
	FieldCurrency     = "currency"
	FieldMinQty       = "min_qty"
)

var (
	// ErrMappingNotFound is returned when a supplier references a mapping
	// that was never registered. It rejects the whole import before any
	// row is processed.
	ErrMappingNotFound = errors.New("supplier mapping not found")

	// ErrUnknownTransform is returned at registration time for a transform
	// name the normalizer does not implement.
	ErrUnknownTransform = errors.New("unknown transform")
)

// FieldRule maps one internal field to a supplier's columns. Headers are
// scanned in priority order and the first non-empty cell wins.
type FieldRule struct {
	Headers    []string `json:"headers"`
	Transforms []string `json:"transforms,omitempty"`
	Default    string   `json:"default,omitempty"`
	Required   bool     `json:"required,omitempty"`
}

// Mapping is an immutable per-supplier column mapping. A mapping is
// registered once at startup and never mutated afterwards.
type Mapping struct {
	Name   string               `json:"name"`
	Fields map[string]FieldRule `json:"fields"`
}

// Registry holds the named mapping strategies available to the import
// engine. Safe for concurrent lookup.
type Registry struct {
	mu       sync.RWMutex
	mappings map[string]Mapping
}

// NewRegistry creates a registry pre-loaded with the default mapping
func NewRegistry() *Registry {
	r := &Registry{mappings: make(map[string]Mapping)}
	// The default mapping can always be registered
	_ = r.Register(DefaultMapping())
	return r
}

// Register validates and stores a mapping strategy
func (r *Registry) Register(m Mapping) error {
	if m.Name == "" {
		return fmt.Errorf("mapping name is required")
	}
	for field, rule := range m.Fields {
		if len(rule.Headers) == 0 && rule.Default == "" {
			return fmt.Errorf("mapping %q: field %q has no headers and no default", m.Name, field)
		}
		for _, t := range rule.Transforms {
			if _, ok := transforms[t]; !ok {
				return fmt.Errorf("mapping %q: field %q: %w: %q", m.Name, field, ErrUnknownTransform, t)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[m.Name] = m
	return nil
}

// Lookup resolves a mapping by name
func (r *Registry) Lookup(name string) (Mapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.mappings[name]
	if !ok {
		return Mapping{}, fmt.Errorf("%w: %q", ErrMappingNotFound, name)
	}
	return m, nil
}

// DefaultMapping covers the column names most supplier price lists use,
// in Spanish and English variants.
func DefaultMapping() Mapping {
	return Mapping{
		Name: "default",
		Fields: map[string]FieldRule{
			FieldSupplierSKU: {
				Headers:    []string{"codigo", "sku", "code", "id"},
				Transforms: []string{"trim"},
				Required:   true,
			},
			FieldTitle: {
				Headers:    []string{"nombre", "producto", "title", "name", "descripcion"},
				Transforms: []string{"trim"},
				Required:   true,
			},
			FieldBrand: {
				Headers:    []string{"marca", "brand"},
				Transforms: []string{"trim"},
			},
			FieldCategoryPath: {
				Headers:    []string{"categoria", "category", "rubro"},
				Transforms: []string{"trim"},
			},
			FieldPrice: {
				Headers:    []string{"precio", "price", "precio_unitario"},
				Transforms: []string{"trim", "decimal"},
				Required:   true,
			},
			FieldCurrency: {
				Headers:    []string{"moneda", "currency"},
				Transforms: []string{"trim", "upper"},
				Default:    "ARS",
			},
			FieldMinQty: {
				Headers:    []string{"minimo", "min_qty", "compra_minima"},
				Transforms: []string{"trim", "decimal"},
				Default:    "1",
			},
		},
	}
}
