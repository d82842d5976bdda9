package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/org-membership-api/internal/constants"
)

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults for zero values", 0, 0, 1, constants.DefaultPageSize, 0},
		{"second page", 2, 10, 2, 10, 10},
		{"limit above max falls back", 1, constants.MaxPageSize + 1, 1, constants.DefaultPageSize, 0},
		{"negative page", -3, 5, 1, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPaginationParams(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
		})
	}
}

func TestGetPaginationParams(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/organizations/x/invitations?page=3&limit=5", nil)

	got := GetPaginationParams(c)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, 10, got.Offset)
}
