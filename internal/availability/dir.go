package availability

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/snapledger/internal/ir"
)

// DirSource serves availability from YAML files laid out as
// <Root>/<owner>/<address>.yaml, each holding an Availability document:
//
//	"2025-01-01":
//	  - observed_at: 2025-01-02T06:00:00Z
//	    rows:
//	      - {partition_key: "channel:web", row_count: 7}
//
// A missing file means nothing is stored for the subject.
type DirSource struct {
	Root string
}

// Fetch implements Source.
func (s DirSource) Fetch(ctx context.Context, subject Subject, days ir.DayRange) (Availability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(subject)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Availability{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read availability: %w", err)
	}

	var a Availability
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse availability %s: %w", path, err)
	}
	for day := range a {
		if _, err := ir.ParseDay(string(day)); err != nil {
			return nil, ir.NewValidationError("day", fmt.Sprintf("availability %s: %v", path, err))
		}
	}
	if a == nil {
		a = Availability{}
	}
	return a, nil
}

func (s DirSource) path(subject Subject) (string, error) {
	parts := [][2]string{
		{"owner_id", subject.OwnerID},
		{"content_address", string(subject.Address)},
	}
	for _, p := range parts {
		if v := p[1]; v == "" || v == "." || v == ".." || strings.ContainsAny(v, `/\`) {
			return "", ir.NewValidationError(p[0], fmt.Sprintf("%q cannot name an availability file", v))
		}
	}
	return filepath.Join(s.Root, subject.OwnerID, string(subject.Address)+".yaml"), nil
}
