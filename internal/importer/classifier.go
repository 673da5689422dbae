package importer

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"procurement-service/internal/mapping"
	"procurement-service/internal/model"
)

// Error tags attached to rows that fail normalization or parsing. These
// are recoverable row-level tags, never hard errors: the row is emitted
// for operator inspection and the rest of the file keeps processing.
const (
	TagMissingRequiredField = "missing_required_field"
	TagInvalidPrice         = "invalid_price"
	TagInvalidMinQty        = "invalid_min_qty"
)

// priceEpsilon bounds float comparison when deciding whether a tracked
// price actually moved
const priceEpsilon = 1e-9

// FieldDiff records one tracked-field change between the incoming row and
// the stored supplier product
type FieldDiff struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Classification is the dry-run verdict for one row. It is computed once
// and stored with the row; commit never re-classifies.
type Classification struct {
	Status   string
	ErrorTag string
	Diff     map[string]FieldDiff
	Price    float64
	MinQty   int
}

// Classifier decides the status of a normalized row against current DB
// state. Stateless; the per-job duplicate set is passed in by the caller.
type Classifier struct{}

// NewClassifier creates a classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify computes the status of one normalized row.
//   - missing required fields or unparseable numerics classify as error
//   - a supplier key already seen in this job classifies as duplicate_in_file
//   - otherwise new, changed or unchanged against the existing record
//
// Only the first occurrence of a key is classified normally; seen is
// updated here so the caller just iterates rows in order.
func (c *Classifier) Classify(row mapping.Row, missing []string, existing *model.SupplierProduct, seen map[string]bool) Classification {
	if len(missing) > 0 {
		sort.Strings(missing)
		return Classification{
			Status:   model.RowStatusError,
			ErrorTag: TagMissingRequiredField + ": " + strings.Join(missing, ", "),
		}
	}

	price, err := strconv.ParseFloat(row.Price, 64)
	if err != nil || price < 0 {
		return Classification{
			Status:   model.RowStatusError,
			ErrorTag: TagInvalidPrice + ": " + row.Price,
		}
	}

	minQty := 1
	if row.MinQty != "" {
		parsed, err := strconv.ParseFloat(row.MinQty, 64)
		if err != nil || parsed < 0 {
			return Classification{
				Status:   model.RowStatusError,
				ErrorTag: TagInvalidMinQty + ": " + row.MinQty,
			}
		}
		minQty = int(parsed)
	}

	if seen[row.SupplierSKU] {
		return Classification{
			Status: model.RowStatusDuplicateInFile,
			Price:  price,
			MinQty: minQty,
		}
	}
	seen[row.SupplierSKU] = true

	if existing == nil {
		return Classification{
			Status: model.RowStatusNew,
			Price:  price,
			MinQty: minQty,
		}
	}

	diff := make(map[string]FieldDiff)
	if math.Abs(existing.Price-price) > priceEpsilon {
		diff["price"] = FieldDiff{Old: existing.Price, New: price}
	}
	if existing.Title != row.Title {
		diff["title"] = FieldDiff{Old: existing.Title, New: row.Title}
	}
	if existing.MinPurchaseQty != minQty {
		diff["min_purchase_qty"] = FieldDiff{Old: existing.MinPurchaseQty, New: minQty}
	}

	if len(diff) == 0 {
		return Classification{
			Status: model.RowStatusUnchanged,
			Price:  price,
			MinQty: minQty,
		}
	}

	return Classification{
		Status: model.RowStatusChanged,
		Diff:   diff,
		Price:  price,
		MinQty: minQty,
	}
}

// EncodeDiff serializes a diff map for storage on the row
func EncodeDiff(diff map[string]FieldDiff) string {
	if len(diff) == 0 {
		return ""
	}
	data, err := json.Marshal(diff)
	if err != nil {
		return ""
	}
	return string(data)
}
