package timeline

import (
	"fmt"
	"testing"

	"github.com/sahistory/timeline/internal/models"
)

func dated(id, date string) models.EventRecord {
	return models.EventRecord{ID: id, Date: date}
}

func TestSample_IdentityUnderTarget(t *testing.T) {
	events := []models.EventRecord{
		dated("a", "1950-01-01"),
		dated("b", "1960-01-01"),
		dated("c", ""),
	}

	got := Sample(events, 3)
	if len(got) != 3 {
		t.Fatalf("Sample() under target returned %d, want all 3", len(got))
	}
	for i := range events {
		if got[i].ID != events[i].ID {
			t.Errorf("identity sample reordered: got %s at %d", got[i].ID, i)
		}
	}
}

func TestSample_TwoDecades(t *testing.T) {
	events := []models.EventRecord{
		dated("a", "1950-01-01"),
		dated("b", "1950-06-01"),
		dated("c", "2020-01-01"),
	}

	got := Sample(events, 2)
	if len(got) != 2 {
		t.Fatalf("Sample() returned %d, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Sample() = [%s %s], want one per decade in ascending order", got[0].ID, got[1].ID)
	}
}

func TestSample_SizeBound(t *testing.T) {
	var events []models.EventRecord
	// 40 events in the 1900s decade, 3 in the 1650s, 1 in the 1200s.
	for i := 0; i < 40; i++ {
		events = append(events, dated(fmt.Sprintf("m%d", i), fmt.Sprintf("1900-01-%02d", i%28+1)))
	}
	for i := 0; i < 3; i++ {
		events = append(events, dated(fmt.Sprintf("o%d", i), "1652-04-06"))
	}
	events = append(events, dated("p", "1210-01-01"))

	target := 12
	got := Sample(events, target)
	if len(got) > target {
		t.Fatalf("Sample() returned %d, over target %d", len(got), target)
	}

	// Every decade contributes at least min(base, decadeCount).
	base := target / 3
	counts := map[string]int{}
	for _, e := range got {
		counts[e.Date[:3]]++
	}
	if counts["121"] < 1 {
		t.Error("1210s decade lost its only event")
	}
	if counts["165"] < min(base, 3) {
		t.Errorf("1650s decade contributed %d, want at least %d", counts["165"], min(base, 3))
	}
	if counts["190"] < base {
		t.Errorf("1900s decade contributed %d, want at least %d", counts["190"], base)
	}
}

func TestSample_RemainderFavorsRecentDecades(t *testing.T) {
	var events []models.EventRecord
	for _, decade := range []string{"1700", "1800", "1900"} {
		for i := 0; i < 10; i++ {
			events = append(events, dated(decade+fmt.Sprint(i), decade[:3]+fmt.Sprintf("%d-01-01", i)))
		}
	}

	// base = 7/3 = 2, remainder 1: the most recent decade gets the extra slot.
	got := Sample(events, 7)
	if len(got) != 7 {
		t.Fatalf("Sample() returned %d, want 7", len(got))
	}
	counts := map[string]int{}
	for _, e := range got {
		counts[e.Date[:2]]++
	}
	if counts["17"] != 2 || counts["18"] != 2 || counts["19"] != 3 {
		t.Errorf("allocation = %v, want 2/2/3 with the remainder on the newest decade", counts)
	}
}

func TestSample_EvenSpacingWithinDecade(t *testing.T) {
	events := []models.EventRecord{dated("x", "1800-01-01")}
	for i := 0; i < 10; i++ {
		events = append(events, dated(fmt.Sprint(i), fmt.Sprintf("1900-01-%02d", i+1)))
	}

	// The 1900s decade gets an allocation of 2 from target 3 (base 1 plus the
	// remainder slot): it picks indexes 0 and 5 of its 10 events.
	got := Sample(events, 3)
	if len(got) != 3 {
		t.Fatalf("Sample() returned %d, want 3", len(got))
	}
	if got[0].ID != "x" || got[1].ID != "0" || got[2].ID != "5" {
		t.Errorf("Sample() picked %v, want evenly spaced [x 0 5]", ids(got))
	}
}

func TestSample_DatelessExcluded(t *testing.T) {
	events := []models.EventRecord{
		dated("a", ""),
		dated("b", ""),
		dated("c", "1950-01-01"),
		dated("d", "1950-02-01"),
	}

	got := Sample(events, 3)
	for _, e := range got {
		if e.Date == "" {
			t.Error("sampled output must not contain dateless events")
		}
	}
}

func TestSample_AllDateless(t *testing.T) {
	events := []models.EventRecord{dated("a", ""), dated("b", ""), dated("c", "")}
	got := Sample(events, 2)
	if len(got) != 0 {
		t.Errorf("Sample() over all-dateless input returned %d, want 0", len(got))
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
