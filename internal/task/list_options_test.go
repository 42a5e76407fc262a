package task

import (
	"testing"
	"time"
)

func TestBuildListOptionsDefaults(t *testing.T) {
	opts := buildListOptions(nil)
	if opts.Limit != 20 {
		t.Fatalf("default limit should be 20, got %d", opts.Limit)
	}
	if opts.Offset != 0 || opts.Order != SortByUpdatedDesc {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestBuildListOptionsClampsLimit(t *testing.T) {
	opts := buildListOptions([]ListOption{WithLimit(1000)})
	if opts.Limit != 100 {
		t.Fatalf("limit should be capped at 100, got %d", opts.Limit)
	}

	opts = buildListOptions([]ListOption{WithLimit(-5), WithOffset(-3)})
	if opts.Limit != 20 || opts.Offset != 0 {
		t.Fatalf("negative values should be sanitized: %+v", opts)
	}
}

func TestNormalizeStatuses(t *testing.T) {
	opts := buildListOptions([]ListOption{
		WithStatuses(StatusQueued, Status("bogus"), StatusQueued, StatusFailed),
	})
	if len(opts.Statuses) != 2 {
		t.Fatalf("invalid and duplicate statuses should be dropped: %v", opts.Statuses)
	}
	if opts.Statuses[0] != StatusQueued || opts.Statuses[1] != StatusFailed {
		t.Fatalf("unexpected statuses: %v", opts.Statuses)
	}

	onlyInvalid := buildListOptions([]ListOption{WithStatuses(Status("bogus"))})
	if onlyInvalid.Statuses != nil {
		t.Fatalf("all-invalid filter should collapse to nil: %v", onlyInvalid.Statuses)
	}
}

func TestWithUpdatedRange(t *testing.T) {
	since := time.Unix(1000, 0)
	until := time.Unix(2000, 0)
	opts := buildListOptions([]ListOption{WithUpdatedSince(since), WithUpdatedUntil(until)})
	if opts.UpdatedGTE != 1000 || opts.UpdatedLTE != 2000 {
		t.Fatalf("unexpected range: %+v", opts)
	}

	opts = buildListOptions([]ListOption{WithUpdatedSince(time.Time{})})
	if opts.UpdatedGTE != 0 {
		t.Fatalf("zero time should clear the bound, got %d", opts.UpdatedGTE)
	}
}
