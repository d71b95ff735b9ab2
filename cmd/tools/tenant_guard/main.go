// tenantGuard scans the inline SQL in internal/store and flags queries
// that touch restaurant-scoped tables without filtering or setting
// restaurant_id. Meant for CI. Exit code 0 = ok, 1 = violation, 2 = error.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Tables where every row belongs to one restaurant. Queries that reach
// them by primary key or through a scoped join are allowlisted below.
var scopedTables = []string{"menu_items", "coupons", "carts", "orders", "branches", "audit_logs"}

// Queries that are scoped indirectly: by the row's own UUID primary key,
// or through a parent row that was itself scoped.
var allowlist = []string{
	"WHERE id = $1",
	"WHERE cart_id = $1",
	"WHERE order_id = $1",
	"JOIN carts",
	"JOIN orders",
	"JOIN menu_items",
	"JOIN branches",
}

var (
	reQuery  = regexp.MustCompile("(?s)`\\s*(SELECT|INSERT|UPDATE|DELETE)[^`]*`")
	reTenant = regexp.MustCompile(`(?i)restaurant_id`)
)

func main() {
	root := "internal/store"
	violations, err := scan(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tenant_guard error: %v\n", err)
		os.Exit(2)
	}
	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "VIOLATION: %s\n", v)
		}
		os.Exit(1)
	}
	fmt.Println("tenant_guard: OK")
}

func scan(dir string) ([]string, error) {
	var violations []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range reQuery.FindAllString(string(data), -1) {
			if ok := checkQuery(m); !ok {
				violations = append(violations, fmt.Sprintf("%s: %s", path, firstLine(m)))
			}
		}
		return nil
	})
	return violations, err
}

func checkQuery(q string) bool {
	touchesScoped := false
	for _, t := range scopedTables {
		if strings.Contains(q, t) {
			touchesScoped = true
			break
		}
	}
	if !touchesScoped {
		return true
	}
	if reTenant.MatchString(q) {
		return true
	}
	for _, a := range allowlist {
		if strings.Contains(q, a) {
			return true
		}
	}
	return false
}

func firstLine(q string) string {
	q = strings.Trim(q, "`")
	for _, line := range strings.Split(q, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
