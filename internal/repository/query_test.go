package repository

import (
	"strings"
	"testing"
)

func TestBuildFindQuery(t *testing.T) {
	userID := int64(3)
	bookID := int64(9)

	tests := []struct {
		name     string
		filter   BorrowingFilter
		contains []string
		absent   []string
		args     int
	}{
		{
			name:     "all loans",
			filter:   BorrowingFilter{},
			contains: []string{`FROM "user_books" AS "ub"`, `"b"."name"`, `ORDER BY "ub"."borrowed_at" ASC, "ub"."id" ASC`},
			absent:   []string{"WHERE", "LIMIT"},
			args:     0,
		},
		{
			name:     "active loan of a book",
			filter:   BorrowingFilter{BookID: &bookID, Status: LoanActive, Limit: 1},
			contains: []string{`"ub"."book_id" = $1`, `"ub"."returned_at" IS NULL`, "LIMIT $2"},
			absent:   []string{`"ub"."user_id" =`},
			args:     2,
		},
		{
			name:     "returned loans of a user",
			filter:   BorrowingFilter{UserID: &userID, Status: LoanReturned},
			contains: []string{`"ub"."user_id" = $1`, `"ub"."returned_at" IS NOT NULL`},
			args:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildFindQuery(tt.filter)
			if err != nil {
				t.Fatalf("buildFindQuery: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(query, want) {
					t.Fatalf("query %q missing %q", query, want)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(query, unwanted) {
					t.Fatalf("query %q should not contain %q", query, unwanted)
				}
			}
			if len(args) != tt.args {
				t.Fatalf("args = %v, want %d", args, tt.args)
			}
		})
	}
}
