package identity

import (
	"path/filepath"
	"testing"
)

func TestLoad_GeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity.json")

	id1, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if id1.DID == "" {
		t.Fatal("expected a non-empty DID")
	}

	id2, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if id1.DID != id2.DID {
		t.Errorf("second Load produced a different identity: %s != %s", id1.DID, id2.DID)
	}
}

func TestDIDKey_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	id, err := Load(filepath.Join(dir, "identity.json"))
	if err != nil {
		t.Fatal(err)
	}
	pub, err := id.VerifyKey()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeDIDKey(id.DID)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != string(pub) {
		t.Error("DID-decoded public key does not match the stored public key")
	}
}

func TestSignAndVerify(t *testing.T) {
	dir := t.TempDir()
	id, err := Load(filepath.Join(dir, "identity.json"))
	if err != nil {
		t.Fatal(err)
	}
	doc := []byte("hello checkpoint")
	sig, err := id.Sign(doc)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := Verify(id.DID, doc, sig)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected signature to verify")
	}
}

func TestVerify_RejectsTamperedDocument(t *testing.T) {
	dir := t.TempDir()
	id, err := Load(filepath.Join(dir, "identity.json"))
	if err != nil {
		t.Fatal(err)
	}
	sig, err := id.Sign([]byte("original"))
	if err != nil {
		t.Fatal(err)
	}
	ok, err := Verify(id.DID, []byte("tampered"), sig)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected tampered document to fail verification")
	}
}

func TestCheckpoint_ExportThenVerify(t *testing.T) {
	dir := t.TempDir()
	id, err := Load(filepath.Join(dir, "identity.json"))
	if err != nil {
		t.Fatal(err)
	}
	cp, err := id.Export("somehash", 3, 1700000000000)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyCheckpoint(*cp)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected freshly exported checkpoint to verify")
	}
}

func TestCheckpoint_VerifyRejectsTamperedField(t *testing.T) {
	dir := t.TempDir()
	id, err := Load(filepath.Join(dir, "identity.json"))
	if err != nil {
		t.Fatal(err)
	}
	cp, err := id.Export("somehash", 3, 1700000000000)
	if err != nil {
		t.Fatal(err)
	}
	cp.ChainLen = 99
	ok, err := VerifyCheckpoint(*cp)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected tampered checkpoint field to fail verification")
	}
}
