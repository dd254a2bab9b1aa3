package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery_NoFilters(t *testing.T) {
	q, args := buildListQuery(ListFilter{})

	assert.Contains(t, q, "deleted=false")
	assert.NotContains(t, q, "created_at")
	assert.NotContains(t, q, "status = ANY")
	assert.Equal(t, []any{20, 0}, args)
}

func TestBuildListQuery_AllFilters(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	q, args := buildListQuery(ListFilter{
		DateFrom: &from,
		DateTo:   &to,
		Statuses: []Status{StatusPending, StatusShipped},
		Page:     2,
		Size:     10,
	})

	assert.Contains(t, q, "created_at >= $1")
	assert.Contains(t, q, "created_at <= $2")
	assert.Contains(t, q, "status = ANY($3)")
	assert.Contains(t, q, "LIMIT $4 OFFSET $5")
	assert.Equal(t, []any{from, to, []string{"PENDING", "SHIPPED"}, 10, 20}, args)
}

func TestBuildListQuery_DateRangeOnly(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	q, args := buildListQuery(ListFilter{DateFrom: &from, Size: 5})

	assert.Contains(t, q, "created_at >= $1")
	assert.NotContains(t, q, "created_at <=")
	assert.NotContains(t, q, "status = ANY")
	assert.Equal(t, []any{from, 5, 0}, args)
}
