package storage

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brito101/medicaodigitalx/storage/model"
)

// orderColumns maps the order keys a listing accepts to column names
type orderColumns map[string]string

// page applies ordering and pagination of q to tx. Unknown order keys fall
// back to the passed default column in descending order.
func (cols orderColumns) page(tx *gorm.DB, q model.ListQuery, fallback string) *gorm.DB {
	column, ok := cols[q.OrderBy]
	desc := q.OrderDesc
	if !ok {
		column = fallback
		desc = true
	}
	tx = tx.Order(
		clause.OrderByColumn{
			Column: clause.Column{Name: column},
			Desc:   desc,
		},
	)
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

// likeEscape is appended to every LIKE clause that takes a likePattern
const likeEscape = " ESCAPE '!'"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern matches search literally anywhere in a column
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// withoutSecrets is a preload scope for users that leaves the password hash
// unloaded
func withoutSecrets(db *gorm.DB) *gorm.DB {
	return db.Omit("password_hash")
}
