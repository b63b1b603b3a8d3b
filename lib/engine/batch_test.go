package engine

import (
	"bytes"
	"testing"
)

func TestBatchRecordsInOrder(t *testing.T) {
	b := NewBatch()
	b.Put([]byte("a"), []byte("1"))
	b.Delete([]byte("b"))
	b.Put([]byte("c"), []byte("2"))

	if b.Len() != 3 {
		t.Fatalf("expected 3 ops, got %d", b.Len())
	}

	ops := b.Ops()
	want := []Op{
		{Kind: OpPut, Key: []byte("a"), Value: []byte("1")},
		{Kind: OpDelete, Key: []byte("b")},
		{Kind: OpPut, Key: []byte("c"), Value: []byte("2")},
	}
	for i, op := range ops {
		if op.Kind != want[i].Kind || !bytes.Equal(op.Key, want[i].Key) || !bytes.Equal(op.Value, want[i].Value) {
			t.Errorf("op %d: got %v/%q/%q, want %v/%q/%q",
				i, op.Kind, op.Key, op.Value, want[i].Kind, want[i].Key, want[i].Value)
		}
	}
}

func TestBatchClear(t *testing.T) {
	b := NewBatch()
	b.Put([]byte("a"), []byte("1"))
	b.Clear()

	if b.Len() != 0 {
		t.Fatalf("expected empty batch after Clear, got %d ops", b.Len())
	}
	if b.Ops() != nil {
		t.Fatal("expected nil ops after Clear")
	}
}
