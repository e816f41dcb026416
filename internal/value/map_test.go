package value

import "testing"

func TestMapAssocAndGetBelowThreshold(t *testing.T) {
	m := EmptyMap()
	m = m.Assoc(KeywordValue("", "a"), Int(1))
	m = m.Assoc(KeywordValue("", "b"), Int(2))
	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}
	got, ok := m.Get(KeywordValue("", "a"))
	if !ok || got.AsInt() != 1 {
		t.Errorf("Get(:a) = %v, %v, want 1, true", got, ok)
	}
	if _, ok := m.Get(KeywordValue("", "missing")); ok {
		t.Errorf("Get(:missing) should be absent")
	}
}

func TestMapPromotesPastThreshold(t *testing.T) {
	m := EmptyMap()
	for i := 0; i < mapThreshold+5; i++ {
		m = m.Assoc(Int(int64(i)), Int(int64(i*10)))
	}
	if !m.isHAMT() {
		t.Fatalf("map with %d entries should have promoted to HAMT", mapThreshold+5)
	}
	for i := 0; i < mapThreshold+5; i++ {
		got, ok := m.Get(Int(int64(i)))
		if !ok || got.AsInt() != int64(i*10) {
			t.Errorf("Get(%d) = %v, %v, want %d, true", i, got, ok, i*10)
		}
	}
}

func TestMapAssocDoesNotMutateOriginal(t *testing.T) {
	m := NewMap(KeywordValue("", "a"), Int(1))
	m2 := m.Assoc(KeywordValue("", "a"), Int(2))

	got, _ := m.Get(KeywordValue("", "a"))
	if got.AsInt() != 1 {
		t.Errorf("original map mutated: Get(:a) = %v, want 1", got)
	}
	got2, _ := m2.Get(KeywordValue("", "a"))
	if got2.AsInt() != 2 {
		t.Errorf("new map Get(:a) = %v, want 2", got2)
	}
}

func TestMapWithoutRemovesKey(t *testing.T) {
	m := NewMap(KeywordValue("", "a"), Int(1), KeywordValue("", "b"), Int(2))
	m2 := m.Without(KeywordValue("", "a"))
	if m2.Count() != 1 {
		t.Fatalf("Count() after Without = %d, want 1", m2.Count())
	}
	if _, ok := m2.Get(KeywordValue("", "a")); ok {
		t.Errorf(":a should be removed")
	}
	if _, ok := m.Get(KeywordValue("", "a")); !ok {
		t.Errorf("original map should still have :a")
	}
}

func TestMapWithoutAcrossHAMTPromotion(t *testing.T) {
	m := EmptyMap()
	for i := 0; i < 50; i++ {
		m = m.Assoc(Int(int64(i)), Int(int64(i)))
	}
	m2 := m.Without(Int(25))
	if m2.Count() != 49 {
		t.Fatalf("Count() = %d, want 49", m2.Count())
	}
	if _, ok := m2.Get(Int(25)); ok {
		t.Errorf("key 25 should be removed")
	}
	for i := 0; i < 50; i++ {
		if i == 25 {
			continue
		}
		if _, ok := m2.Get(Int(int64(i))); !ok {
			t.Errorf("key %d should still be present after removing 25", i)
		}
	}
}

func TestMapRangeVisitsAllEntries(t *testing.T) {
	m := EmptyMap()
	want := map[int64]bool{}
	for i := 0; i < 40; i++ {
		m = m.Assoc(Int(int64(i)), Bool(true))
		want[int64(i)] = true
	}
	got := map[int64]bool{}
	m.Range(func(k, v Value) bool {
		got[k.AsInt()] = true
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Range visited %d keys, want %d", len(got), len(want))
	}
	for k := range want {
		if !got[k] {
			t.Errorf("Range missed key %d", k)
		}
	}
}
