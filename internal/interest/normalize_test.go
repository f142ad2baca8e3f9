package interest

import (
	"reflect"
	"testing"
)

func TestNormalize_StringCommaSeparated(t *testing.T) {
	got := Normalize("Music, Movies ,music")
	want := []string{"music", "movies"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestNormalize_StringEmptyOrRandom(t *testing.T) {
	cases := []string{"", "   ", "random", "RANDOM", " Random "}
	for _, c := range cases {
		got := Normalize(c)
		want := []string{Random}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Normalize(%q) = %v, want %v", c, got, want)
		}
	}
}

func TestNormalize_List(t *testing.T) {
	got := Normalize([]string{" Gaming ", "gaming", "Anime"})
	want := []string{"gaming", "anime"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestNormalize_ListEmptyEntriesDropped(t *testing.T) {
	got := Normalize([]string{"", "  ", "music"})
	want := []string{"music"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize() = %v, want %v", got, want)
	}
}

func TestNormalize_EmptyListDefaultsToRandom(t *testing.T) {
	got := Normalize([]string{})
	want := []string{Random}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize([]string{}) = %v, want %v", got, want)
	}
}

func TestNormalize_UnrecognizedTypeDefaultsToRandom(t *testing.T) {
	got := Normalize(nil)
	want := []string{Random}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize(nil) = %v, want %v", got, want)
	}
}

// Idempotent normalization law: normalize(normalize(x)) == normalize(x).
func TestNormalize_Idempotent(t *testing.T) {
	inputs := []interface{}{
		"Music, Movies, music",
		"",
		[]string{"Gaming", "gaming", ""},
		"random",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("normalize not idempotent for %v: once=%v twice=%v", in, once, twice)
		}
	}
}
