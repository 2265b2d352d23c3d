package protocol

import "strconv"

// Lookup resolves server-assigned ids to announced names.
type Lookup interface {
	SenderName(id int32) (string, bool)
	TypeName(id int32) (string, bool)
}

// DescriptionKind distinguishes sender and type announcements.
type DescriptionKind int

const (
	SenderDescription DescriptionKind = iota
	TypeDescription
)

// Description is a decoded sender or type announcement.
type Description struct {
	Kind DescriptionKind
	ID   int32
	Name string
}

// Dictionary accumulates descriptions for one connection epoch.
// It is owned by the receive loop and is not safe for concurrent use.
type Dictionary struct {
	senders map[int32]string
	types   map[int32]string
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		senders: make(map[int32]string),
		types:   make(map[int32]string),
	}
}

// Apply records a description, replacing any earlier name for the same id.
func (d *Dictionary) Apply(desc Description) {
	switch desc.Kind {
	case SenderDescription:
		d.senders[desc.ID] = desc.Name
	case TypeDescription:
		d.types[desc.ID] = desc.Name
	}
}

// SenderName returns the announced name for a sender id.
func (d *Dictionary) SenderName(id int32) (string, bool) {
	if d == nil {
		return "", false
	}
	name, ok := d.senders[id]
	return name, ok
}

// TypeName returns the announced name for a type id.
func (d *Dictionary) TypeName(id int32) (string, bool) {
	if d == nil {
		return "", false
	}
	name, ok := d.types[id]
	return name, ok
}

// Len returns the number of known senders and types.
func (d *Dictionary) Len() (senders, types int) {
	return len(d.senders), len(d.types)
}

// Reset forgets all descriptions.
func (d *Dictionary) Reset() {
	clear(d.senders)
	clear(d.types)
}

// fallbackSenderName is the entity name used for senders never announced.
func fallbackSenderName(id int32) string {
	return "sender-" + strconv.FormatInt(int64(id), 10)
}

// overlay layers descriptions seen earlier in the same datagram over a base lookup.
type overlay struct {
	base    Lookup
	senders map[int32]string
	types   map[int32]string
}

func (o *overlay) apply(desc Description) {
	switch desc.Kind {
	case SenderDescription:
		if o.senders == nil {
			o.senders = make(map[int32]string)
		}
		o.senders[desc.ID] = desc.Name
	case TypeDescription:
		if o.types == nil {
			o.types = make(map[int32]string)
		}
		o.types[desc.ID] = desc.Name
	}
}

func (o *overlay) SenderName(id int32) (string, bool) {
	if name, ok := o.senders[id]; ok {
		return name, true
	}
	if o.base == nil {
		return "", false
	}
	return o.base.SenderName(id)
}

func (o *overlay) TypeName(id int32) (string, bool) {
	if name, ok := o.types[id]; ok {
		return name, true
	}
	if o.base == nil {
		return "", false
	}
	return o.base.TypeName(id)
}
