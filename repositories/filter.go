package repositories

import (
	"fmt"
	"strings"

	"order-management/models"
)

// whereClause translates predicate descriptors into a WHERE clause over the
// order_items alias "oi". No predicates yields an empty clause.
func whereClause(preds []models.Predicate) (string, []interface{}, error) {
	conds := make([]string, 0, len(preds))
	args := make([]interface{}, 0, len(preds)*2)

	for _, p := range preds {
		switch p.Kind {
		case models.PredicateStatus:
			conds = append(conds, "oi.status = ?")
			args = append(args, string(p.Status))
		case models.PredicateCreatedBetween:
			conds = append(conds, "oi.created_at BETWEEN ? AND ?")
			args = append(args, formatTimestamp(p.From), formatTimestamp(p.To))
		case models.PredicateCreatedFrom:
			conds = append(conds, "oi.created_at >= ?")
			args = append(args, formatTimestamp(p.From))
		case models.PredicateCreatedTo:
			conds = append(conds, "oi.created_at <= ?")
			args = append(args, formatTimestamp(p.To))
		case models.PredicateItemID:
			conds = append(conds, "oi.id = ?")
			args = append(args, p.ItemID)
		default:
			return "", nil, fmt.Errorf("%w: unsupported predicate %s", models.ErrInvalidArgument, p.Kind)
		}
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}
