package roster

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dukerupert/dailyboard/internal/model"
)

func char(name, server, level string, order *int) model.Character {
	return model.Character{
		CharacterName:      name,
		ServerName:         server,
		CharacterClassName: "Bard",
		ItemAvgLevel:       level,
		DisplayOrder:       order,
	}
}

// summary reduces a roster to "name:order" pairs for readable diffs.
func summary(chars []model.Character) []string {
	out := make([]string, len(chars))
	for i, c := range chars {
		order := "nil"
		if c.DisplayOrder != nil {
			order = strconv.Itoa(*c.DisplayOrder)
		}
		out[i] = c.CharacterName + ":" + order
	}
	return out
}

func TestParseItemLevel(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,640.83", 1640.83},
		{"1640.83", 1640.83},
		{"999", 999},
		{"1,000", 1000},
		{"1,500.", 1500},
		{"1,234.5abc", 1234.5},
		{"", 0},
		{"abc", 0},
		{"Lv. 1600", 0},
		{"-1600", 0},
	}

	for _, tt := range tests {
		if got := ParseItemLevel(tt.in); got != tt.want {
			t.Errorf("ParseItemLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReconcileScenarioA(t *testing.T) {
	incoming := []model.Character{
		char("Foo", "S", "1,500.00", nil),
		char("Bar", "S", "999", nil),
	}

	got := Reconcile(nil, incoming)
	if diff := cmp.Diff([]string{"Foo:0"}, summary(got)); diff != "" {
		t.Errorf("reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileScenarioB(t *testing.T) {
	existing := []model.Character{
		char("Foo", "S", "1,550.00", model.IntPtr(0)),
		char("Baz", "S", "1,520.00", model.IntPtr(1)),
	}
	incoming := []model.Character{
		char("Qux", "S", "1,800.00", nil),
		char("Foo", "S", "1,600.00", nil),
	}

	got := Reconcile(existing, incoming)
	if diff := cmp.Diff([]string{"Foo:0", "Qux:1"}, summary(got)); diff != "" {
		t.Errorf("reconcile mismatch (-want +got):\n%s", diff)
	}
	if got[0].ItemAvgLevel != "1,600.00" {
		t.Errorf("Foo level = %q, want fresh value 1,600.00", got[0].ItemAvgLevel)
	}
}

func TestReconcileScenarioC(t *testing.T) {
	existing := []model.Character{
		char("Bar", "S", "1,300.00", model.IntPtr(1)),
		char("Foo", "S", "1,100.00", model.IntPtr(0)),
	}
	incoming := []model.Character{
		char("Beta", "S", "1,900.00", nil),
		char("Foo", "S", "1,200.00", nil),
		char("Alpha", "S", "2,000.00", nil),
	}

	got := Reconcile(existing, incoming)
	if diff := cmp.Diff([]string{"Foo:0", "Alpha:1", "Beta:2"}, summary(got)); diff != "" {
		t.Errorf("reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcilePreservesUserOrder(t *testing.T) {
	existing := []model.Character{
		char("Low", "S", "1,100.00", model.IntPtr(0)),
		char("High", "S", "1,700.00", model.IntPtr(1)),
		char("Mid", "S", "1,400.00", model.IntPtr(2)),
	}
	incoming := []model.Character{
		char("High", "S", "1,700.00", nil),
		char("Mid", "S", "1,400.00", nil),
		char("Low", "S", "1,100.00", nil),
	}

	got := Reconcile(existing, incoming)
	if diff := cmp.Diff([]string{"Low:0", "High:1", "Mid:2"}, summary(got)); diff != "" {
		t.Errorf("order not preserved (-want +got):\n%s", diff)
	}
}

func TestReconcileDropsBelowThreshold(t *testing.T) {
	existing := []model.Character{
		char("Foo", "S", "1,500.00", model.IntPtr(0)),
		char("Alt", "S", "1,010.00", model.IntPtr(1)),
	}
	incoming := []model.Character{
		char("Foo", "S", "1,500.00", nil),
		char("Alt", "S", "990.00", nil),
		char("New", "S", "50", nil),
	}

	got := Reconcile(existing, incoming)
	for _, c := range got {
		if !Admissible(c) {
			t.Errorf("%s (%s) should have been filtered", c.CharacterName, c.ItemAvgLevel)
		}
	}
	if diff := cmp.Diff([]string{"Foo:0"}, summary(got)); diff != "" {
		t.Errorf("reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileStripsMaxLevel(t *testing.T) {
	in := char("Foo", "S", "1,500.00", nil)
	in.ItemMaxLevel = "1,510.00"

	got := Reconcile(nil, []model.Character{in})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].ItemMaxLevel != "" {
		t.Errorf("ItemMaxLevel = %q, want stripped", got[0].ItemMaxLevel)
	}
}

func TestReconcileMissingOrderTreatedAsZero(t *testing.T) {
	existing := []model.Character{
		char("First", "S", "1,100.00", model.IntPtr(1)),
		char("NoOrder", "S", "1,200.00", nil),
	}
	incoming := []model.Character{
		char("First", "S", "1,100.00", nil),
		char("NoOrder", "S", "1,200.00", nil),
	}

	got := Reconcile(existing, incoming)
	if diff := cmp.Diff([]string{"NoOrder:0", "First:1"}, summary(got)); diff != "" {
		t.Errorf("reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileLargeRoster(t *testing.T) {
	var incoming []model.Character
	var want []string
	for i := range 12 {
		name := "C" + strconv.Itoa(i)
		incoming = append(incoming, char(name, "S", strconv.Itoa(1700-i), nil))
		want = append(want, name+":"+strconv.Itoa(i))
	}

	got := Reconcile(nil, incoming)
	if diff := cmp.Diff(want, summary(got)); diff != "" {
		t.Errorf("reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileSameNameDifferentServer(t *testing.T) {
	existing := []model.Character{char("Foo", "A", "1,500.00", model.IntPtr(0))}
	incoming := []model.Character{
		char("Foo", "B", "1,600.00", nil),
		char("Foo", "A", "1,500.00", nil),
	}

	got := Reconcile(existing, incoming)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ServerName != "A" || got[1].ServerName != "B" {
		t.Errorf("servers = [%s %s], want [A B]", got[0].ServerName, got[1].ServerName)
	}
}

func TestReconcileDuplicateIncoming(t *testing.T) {
	incoming := []model.Character{
		char("Foo", "S", "1,500.00", nil),
		char("Foo", "S", "1,520.00", nil),
	}

	got := Reconcile(nil, incoming)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].ItemAvgLevel != "1,520.00" {
		t.Errorf("level = %q, want last duplicate to win", got[0].ItemAvgLevel)
	}
}

func TestReconcileEmptyInputs(t *testing.T) {
	if got := Reconcile(nil, nil); len(got) != 0 {
		t.Errorf("Reconcile(nil, nil) len = %d, want 0", len(got))
	}

	existing := []model.Character{char("Foo", "S", "1,500.00", model.IntPtr(0))}
	if got := Reconcile(existing, nil); len(got) != 0 {
		t.Errorf("Reconcile(existing, nil) len = %d, want 0", len(got))
	}
}

func TestReconcileDenseOrderAndNoDuplicates(t *testing.T) {
	existing := []model.Character{
		char("A", "S", "1,500.00", model.IntPtr(7)),
		char("B", "S", "1,500.00", model.IntPtr(3)),
		char("C", "S", "1,500.00", model.IntPtr(3)),
		char("D", "S", "1,500.00", nil),
	}
	incoming := []model.Character{
		char("E", "S", "1,450.00", nil),
		char("D", "S", "1,500.00", nil),
		char("C", "S", "1,500.00", nil),
		char("A", "S", "1,500.00", nil),
		char("F", "S", "1,650.00", nil),
		char("G", "S", "800", nil),
	}

	got := Reconcile(existing, incoming)
	seen := make(map[string]bool)
	for i, c := range got {
		if c.DisplayOrder == nil || *c.DisplayOrder != i {
			t.Errorf("got[%d].DisplayOrder = %v, want %d", i, c.DisplayOrder, i)
		}
		if seen[c.Key()] {
			t.Errorf("duplicate key %s", c.Key())
		}
		seen[c.Key()] = true
	}
	if diff := cmp.Diff([]string{"D:0", "C:1", "A:2", "F:3", "E:4"}, summary(got)); diff != "" {
		t.Errorf("reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	existing := []model.Character{
		char("Foo", "S", "1,500.00", model.IntPtr(0)),
		char("Gone", "S", "1,500.00", model.IntPtr(1)),
	}
	incoming := []model.Character{
		char("New2", "S", "1,300.00", nil),
		char("Foo", "S", "1,510.00", nil),
		char("New1", "S", "1,700.00", nil),
	}

	first := Reconcile(existing, incoming)
	second := Reconcile(first, incoming)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second reconcile changed the result (-first +second):\n%s", diff)
	}
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	existing := []model.Character{
		char("B", "S", "1,500.00", model.IntPtr(1)),
		char("A", "S", "1,500.00", model.IntPtr(0)),
	}
	incoming := []model.Character{char("A", "S", "1,500.00", nil)}
	incoming[0].ItemMaxLevel = "1,600.00"

	Reconcile(existing, incoming)

	if existing[0].CharacterName != "B" || *existing[0].DisplayOrder != 1 {
		t.Error("existing was modified")
	}
	if incoming[0].ItemMaxLevel != "1,600.00" || incoming[0].DisplayOrder != nil {
		t.Error("incoming was modified")
	}
}

func TestNormalize(t *testing.T) {
	in := []model.Character{
		char("Mid", "S", "1,400.00", nil),
		char("Low", "S", "900.00", nil),
		char("High", "S", "1,650.50", nil),
		char("MidTwin", "S", "1,400.00", model.IntPtr(9)),
	}
	in[2].ItemMaxLevel = "1,660.00"

	got := Normalize(in)
	if diff := cmp.Diff([]string{"High:0", "Mid:1", "MidTwin:2"}, summary(got)); diff != "" {
		t.Errorf("normalize mismatch (-want +got):\n%s", diff)
	}
	if got[0].ItemMaxLevel != "" {
		t.Error("ItemMaxLevel should be stripped")
	}
}

func TestRepresentative(t *testing.T) {
	orders := [][]string{
		{"1,200.00", "1,800.00", "1,500.00"},
		{"1,800.00", "1,500.00", "1,200.00"},
		{"1,500.00", "1,200.00", "1,800.00"},
	}
	for _, levels := range orders {
		var chars []model.Character
		for _, lvl := range levels {
			chars = append(chars, char("C"+lvl, "S", lvl, nil))
		}
		rep, ok := Representative(chars)
		if !ok {
			t.Fatalf("Representative(%v) found none", levels)
		}
		if rep.ItemAvgLevel != "1,800.00" {
			t.Errorf("Representative(%v) = %s, want the 1,800.00 character", levels, rep.ItemAvgLevel)
		}
	}
}

func TestRepresentativeTieKeepsFirst(t *testing.T) {
	chars := []model.Character{
		char("Second", "S", "1,200.00", nil),
		char("First", "S", "1,700.00", nil),
		char("Twin", "S", "1,700.00", nil),
	}
	rep, _ := Representative(chars)
	if rep.CharacterName != "First" {
		t.Errorf("representative = %s, want First", rep.CharacterName)
	}
}

func TestRepresentativeNoneAdmissible(t *testing.T) {
	if _, ok := Representative([]model.Character{char("Low", "S", "500", nil)}); ok {
		t.Error("expected no representative")
	}
	if _, ok := Representative(nil); ok {
		t.Error("expected no representative for empty input")
	}
}

func TestSortForDisplay(t *testing.T) {
	t.Run("all ordered", func(t *testing.T) {
		in := []model.Character{
			char("B", "S", "1,700.00", model.IntPtr(1)),
			char("A", "S", "1,100.00", model.IntPtr(0)),
		}
		got := SortForDisplay(in)
		if diff := cmp.Diff([]string{"A:0", "B:1"}, summary(got)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing order re-ranks by level", func(t *testing.T) {
		in := []model.Character{
			char("A", "S", "1,100.00", model.IntPtr(0)),
			char("B", "S", "1,700.00", nil),
			char("C", "S", "1,100.00", model.IntPtr(1)),
		}
		got := SortForDisplay(in)
		if diff := cmp.Diff([]string{"B:0", "A:1", "C:2"}, summary(got)); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}
