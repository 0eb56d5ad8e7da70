package rbac_test

import (
	"testing"

	"github.com/Malaz-al-Mahdi/academic-evaluation-system/internal/rbac"
)

func TestCheckerDefaultRoles(t *testing.T) {
	c := rbac.NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"evaluator", "evaluation:create", true},
		{"evaluator", "student:view", true},
		{"evaluator", "rubric:create", false},
		{"evaluator", "report_type:create", false},
		{"admin", "rubric:create", true},
		{"admin", "anything:at:all", true},
		{"unknown", "evaluation:view", false},
		{"", "evaluation:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerWildcardPrefix(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{
		"reader": {"evaluation:*"},
	})
	if !c.Has("reader", "evaluation:view") {
		t.Error("prefix wildcard should match evaluation:view")
	}
	if c.Has("reader", "student:view") {
		t.Error("prefix wildcard must not leak into other resources")
	}
}

func TestCheckerAny(t *testing.T) {
	c := rbac.NewChecker(nil)
	if !c.Any("evaluator", "rubric:create", "evaluation:create") {
		t.Error("Any should pass when one permission matches")
	}
	if c.Any("evaluator", "rubric:create", "report_type:create") {
		t.Error("Any should fail when none match")
	}
}
