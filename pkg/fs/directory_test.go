package fs

import "testing"

func TestDirectoryAddFindRemove(t *testing.T) {
	d := NewDirectory(1)

	if err := d.Add("alpha", 10, false); err != nil {
		t.Fatalf("Add(alpha) = %v, want nil", err)
	}
	if err := d.Add("beta", 11, true); err != nil {
		t.Fatalf("Add(beta) = %v, want nil", err)
	}

	if sector, isDir := d.Find("alpha"); sector != 10 || isDir {
		t.Errorf("Find(alpha) = (%d, %v), want (10, false)", sector, isDir)
	}
	if sector, isDir := d.Find("beta"); sector != 11 || !isDir {
		t.Errorf("Find(beta) = (%d, %v), want (11, true)", sector, isDir)
	}
	if sector, _ := d.Find("gamma"); sector != -1 {
		t.Errorf("Find(gamma) = %d, want -1", sector)
	}

	if err := d.Remove("alpha"); err != nil {
		t.Fatalf("Remove(alpha) = %v, want nil", err)
	}
	if sector, _ := d.Find("alpha"); sector != -1 {
		t.Errorf("Find(alpha) after Remove = %d, want -1", sector)
	}
	if err := d.Remove("alpha"); err != ErrNotFound {
		t.Errorf("Remove(alpha) again = %v, want ErrNotFound", err)
	}
}

func TestDirectoryAddDuplicateNameFails(t *testing.T) {
	d := NewDirectory(1)
	if err := d.Add("alpha", 10, false); err != nil {
		t.Fatalf("Add(alpha) = %v, want nil", err)
	}
	if err := d.Add("alpha", 99, true); err != ErrAlreadyExists {
		t.Errorf("Add(alpha) duplicate = %v, want ErrAlreadyExists", err)
	}
}

func TestDirectoryIsEmpty(t *testing.T) {
	d := NewDirectory(1)
	if !d.IsEmpty() {
		t.Error("IsEmpty() on a fresh directory = false, want true")
	}
	d.Add("alpha", 10, false)
	if d.IsEmpty() {
		t.Error("IsEmpty() after Add = true, want false")
	}
	d.Remove("alpha")
	if !d.IsEmpty() {
		t.Error("IsEmpty() after removing the only entry = false, want true")
	}
}

func TestDirectoryEncodeDecodeRoundTrip(t *testing.T) {
	const nameMax = 16

	d := NewDirectory(5)
	d.Add("short", 1, false)
	d.Add("adirectory", 2, true)

	buf := d.Encode(nameMax)
	got := DecodeDirectory(5, buf, nameMax)

	if len(got.Entries()) != 2 {
		t.Fatalf("Entries() after round trip has %d entries, want 2", len(got.Entries()))
	}
	if sector, isDir := got.Find("short"); sector != 1 || isDir {
		t.Errorf("Find(short) after round trip = (%d, %v), want (1, false)", sector, isDir)
	}
	if sector, isDir := got.Find("adirectory"); sector != 2 || !isDir {
		t.Errorf("Find(adirectory) after round trip = (%d, %v), want (2, true)", sector, isDir)
	}
}

func TestDecodeDirectoryEmptyBuffer(t *testing.T) {
	got := DecodeDirectory(3, nil, 16)
	if !got.IsEmpty() {
		t.Error("DecodeDirectory(nil) is not empty, want empty")
	}
}
