package settings

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOpenMissingFile(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "nope", "settings.yaml"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := f.Get("lyrics_mode"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duet", "settings.yaml")

	f, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := f.Set("lyrics_mode", "bilingual"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := f.SetBool("bold_original", true); err != nil {
		t.Fatalf("SetBool() error = %v", err)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if v, err := reopened.Get("lyrics_mode"); err != nil || v != "bilingual" {
		t.Errorf("Get() = %q, %v", v, err)
	}
	if !reopened.Bool("bold_original", false) {
		t.Error("Bool(bold_original) = false after SetBool(true)")
	}
	if want := []string{"bold_original", "lyrics_mode"}; !reflect.DeepEqual(reopened.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", reopened.Keys(), want)
	}
}

func TestBoolFallback(t *testing.T) {
	f, _ := Open("", nil)
	_ = f.Set("italic_translation", "sometimes")

	if !f.Bool("italic_translation", true) {
		t.Error("unparsable value should fall back to the default")
	}
	if f.Bool("missing", false) {
		t.Error("missing value should fall back to the default")
	}
}

func TestDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	f, _ := Open(path, nil)
	_ = f.Set("a", "1")

	if err := f.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := f.Delete("a"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}

	reopened, _ := Open(path, nil)
	if _, err := reopened.Get("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted key still present: %v", err)
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("- just\n- a list\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, nil); err == nil {
		t.Error("Open() of a yaml list should fail")
	}
}
