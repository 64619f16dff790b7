package storage

import (
	"github.com/yale-db/godb-core/common"
)

// HeapPage is a fixed-size slotted page holding tuples of a single
// TupleDesc. Layout, exactly common.PageSize bytes:
//
//	Header: ceil(N/8) bytes, a bitmap where bit i (LSB-first within its
//	        byte) records whether slot i is occupied.
//	Slots:  N consecutive tuple_size-byte slots, where
//	        N = floor(PageSize*8 / (tuple_size*8 + 1)).
//	Padding: any remaining bytes (unused header bits, rounding
//	        remainder) are zero.
//
// HeapPage wraps a caller-owned PAGE_SIZE buffer rather than copying
// it: mutations through InsertTuple/DeleteTuple are immediately
// reflected in Serialize()'s output because they are the same bytes.
type HeapPage struct {
	id          common.PageID
	desc        *TupleDesc
	data        []byte
	numSlots    int
	headerBytes int
	tupleSize   int
	header      bitmap

	dirty    bool
	dirtyTid common.TransactionID
}

// CreateEmptyPageData returns a fresh, all-zero page buffer. A
// HeapPage constructed from it has no occupied slots.
func CreateEmptyPageData() []byte {
	return make([]byte, common.PageSize)
}

// maxSlotsFor returns N, the maximum number of tupleSize-byte slots
// that fit in a page alongside their occupancy bitmap header.
func maxSlotsFor(tupleSize int) int {
	return (common.PageSize * 8) / (tupleSize*8 + 1)
}

// NewHeapPage constructs a HeapPage over data (which must be exactly
// common.PageSize bytes), interpreting it against desc. data is used
// directly, not copied: the returned page aliases it.
func NewHeapPage(id common.PageID, desc *TupleDesc, data []byte) (*HeapPage, error) {
	if len(data) != common.PageSize {
		return nil, common.NewError(common.IoFailure, "heap page buffer must be exactly %d bytes, got %d", common.PageSize, len(data))
	}
	tupleSize := desc.Size()
	numSlots := maxSlotsFor(tupleSize)
	if numSlots <= 0 {
		return nil, common.NewError(common.SchemaMismatch, "tuple size %d does not fit within a %d-byte page", tupleSize, common.PageSize)
	}
	headerBytes := (numSlots + 7) / 8
	common.Assert(headerBytes+numSlots*tupleSize <= common.PageSize, "heap page layout overflows page size")

	return &HeapPage{
		id:          id,
		desc:        desc,
		data:        data,
		numSlots:    numSlots,
		headerBytes: headerBytes,
		tupleSize:   tupleSize,
		header:      asBitmap(data[:headerBytes], numSlots),
	}, nil
}

// ID returns the page's identifier.
func (hp *HeapPage) ID() common.PageID {
	return hp.id
}

// Desc returns the page's tuple descriptor.
func (hp *HeapPage) Desc() *TupleDesc {
	return hp.desc
}

// NumSlots returns the maximum number of tuples this page can hold.
func (hp *HeapPage) NumSlots() int {
	return hp.numSlots
}

func (hp *HeapPage) slotOffset(slot int) int {
	return hp.headerBytes + slot*hp.tupleSize
}

// GetTuple returns the tuple at slot, or SlotEmpty if unoccupied.
func (hp *HeapPage) GetTuple(slot int) (*Tuple, error) {
	if slot < 0 || slot >= hp.numSlots || !hp.header.get(slot) {
		return nil, common.NewError(common.SlotEmpty, "slot %d is empty on %s", slot, hp.id)
	}
	off := hp.slotOffset(slot)
	return ReadTuple(hp.desc, hp.data[off:off+hp.tupleSize], common.RecordID{PageID: hp.id, Slot: int32(slot)}), nil
}

// InsertTuple writes t into the lowest-indexed empty slot, assigning
// its RecordID. Fails with PageFull if no slot is free, or
// SchemaMismatch if t's descriptor differs from the page's.
func (hp *HeapPage) InsertTuple(t *Tuple) error {
	if !t.Desc.Equals(hp.desc) {
		return common.NewError(common.SchemaMismatch, "tuple descriptor does not match page %s", hp.id)
	}
	slot := hp.header.firstZero()
	if slot == -1 {
		return common.NewError(common.PageFull, "page %s has no empty slot", hp.id)
	}
	off := hp.slotOffset(slot)
	t.WriteTo(hp.data[off : off+hp.tupleSize])
	hp.header.set(slot, true)
	t.SetRecordID(common.RecordID{PageID: hp.id, Slot: int32(slot)})
	return nil
}

// DeleteTuple clears t's slot. Fails with NotOnThisPage if t's
// RecordID names a different page, or SlotAlreadyEmpty if the slot is
// already unoccupied.
func (hp *HeapPage) DeleteTuple(t *Tuple) error {
	rid := t.RecordID()
	if rid.PageID != hp.id {
		return common.NewError(common.NotOnThisPage, "record %s does not belong to page %s", rid, hp.id)
	}
	slot := int(rid.Slot)
	if slot < 0 || slot >= hp.numSlots || !hp.header.get(slot) {
		return common.NewError(common.SlotAlreadyEmpty, "slot %d is already empty on %s", slot, hp.id)
	}
	hp.header.set(slot, false)
	off := hp.slotOffset(slot)
	for i := off; i < off+hp.tupleSize; i++ {
		hp.data[i] = 0
	}
	return nil
}

// MarkDirty sets or clears the page's dirty flag and records (or
// clears) the transaction responsible.
func (hp *HeapPage) MarkDirty(dirty bool, tid common.TransactionID) {
	hp.dirty = dirty
	if dirty {
		hp.dirtyTid = tid
	} else {
		hp.dirtyTid = common.InvalidTransactionID
	}
}

// IsDirty reports whether the page has unflushed modifications, and
// if so, by which transaction.
func (hp *HeapPage) IsDirty() (bool, common.TransactionID) {
	return hp.dirty, hp.dirtyTid
}

// Serialize returns an independent copy of the page's exactly
// PageSize-byte on-disk image.
func (hp *HeapPage) Serialize() []byte {
	out := make([]byte, common.PageSize)
	copy(out, hp.data)
	return out
}

// HeapPageIterator walks the occupied slots of a HeapPage in
// ascending slot order. It is finite and safe to Rewind.
type HeapPageIterator struct {
	page *HeapPage
	slot int
}

// Iterate returns an iterator positioned before the first occupied slot.
func (hp *HeapPage) Iterate() *HeapPageIterator {
	return &HeapPageIterator{page: hp}
}

func (it *HeapPageIterator) advance() {
	for it.slot < it.page.numSlots && !it.page.header.get(it.slot) {
		it.slot++
	}
}

// Rewind resets the iterator to the first occupied slot.
func (it *HeapPageIterator) Rewind() {
	it.slot = 0
}

// HasNext reports whether another occupied slot remains.
func (it *HeapPageIterator) HasNext() bool {
	it.advance()
	return it.slot < it.page.numSlots
}

// Next returns the next occupied-slot tuple in ascending slot order.
func (it *HeapPageIterator) Next() (*Tuple, error) {
	it.advance()
	if it.slot >= it.page.numSlots {
		return nil, common.NewError(common.SlotEmpty, "iterator exhausted on %s", it.page.id)
	}
	t, err := it.page.GetTuple(it.slot)
	it.slot++
	return t, err
}
