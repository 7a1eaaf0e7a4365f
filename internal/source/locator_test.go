package source

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name              string
		base, group, file string
		want              string
	}{
		{"relative base", "./datasets", "source_crm", "cust_info.csv", filepath.Join("datasets", "source_crm", "cust_info.csv")},
		{"absolute base", "/data", "source_erp", "LOC_A101.csv", filepath.Join("/data", "source_erp", "LOC_A101.csv")},
		{"trailing separator", "/data/", "grpA", "a.csv", filepath.Join("/data", "grpA", "a.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.base, tt.group, tt.file))
		})
	}
}
