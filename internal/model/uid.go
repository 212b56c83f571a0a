package model

import (
	"bytes"
	"encoding/binary"

	"github.com/google/uuid"
)

// uidNamespace scopes the name-based UUIDs produced by this package.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("schedsnap/uid/v1"))

// Record tags keep group and snapshot encodings from colliding.
const (
	tagGroup    byte = 'G'
	tagSnapshot byte = 'S'
	tagLesson   byte = 'L'
)

// canonical is a length-prefixed byte encoding of schedule content.
// Every field is written in declaration order; optional fields carry a
// presence byte so that "absent" and "empty" encode differently.
type canonical struct {
	buf bytes.Buffer
}

func (c *canonical) tag(t byte) {
	c.buf.WriteByte(t)
}

func (c *canonical) count(n int) {
	c.buf.Write(binary.BigEndian.AppendUint64(nil, uint64(n)))
}

func (c *canonical) str(s string) {
	c.count(len(s))
	c.buf.WriteString(s)
}

func (c *canonical) optInt(p *int) {
	if p == nil {
		c.buf.WriteByte(0)
		return
	}
	c.buf.WriteByte(1)
	c.buf.Write(binary.BigEndian.AppendUint64(nil, uint64(int64(*p))))
}

func (c *canonical) optStr(p *string) {
	if p == nil {
		c.buf.WriteByte(0)
		return
	}
	c.buf.WriteByte(1)
	c.str(*p)
}

func (c *canonical) lesson(l Lesson) {
	c.tag(tagLesson)
	c.optInt(l.Num)
	c.optInt(l.Subgroup)
	c.str(l.Name)
	c.optStr(l.Teacher)
	c.optStr(l.Classroom)
}

func (c *canonical) uid() UID {
	return UID(uuid.NewSHA1(uidNamespace, c.buf.Bytes()).String())
}

// GroupUID derives a group's identity from its name and lessons in order.
func GroupUID(name string, lessons []Lesson) UID {
	var c canonical
	c.tag(tagGroup)
	c.str(name)
	c.count(len(lessons))
	for _, l := range lessons {
		c.lesson(l)
	}
	return c.uid()
}

// SnapshotUID derives a snapshot's identity from its groups in order.
// Each group contributes its freshly derived uid, so a stale Group.UID
// field cannot leak into the result. Date and parse time are excluded.
func SnapshotUID(groups []Group) UID {
	var c canonical
	c.tag(tagSnapshot)
	c.count(len(groups))
	for _, g := range groups {
		c.str(string(GroupUID(g.Name, g.Lessons)))
	}
	return c.uid()
}

// Rehash recomputes the group's uid.
func (g *Group) Rehash() {
	g.UID = GroupUID(g.Name, g.Lessons)
}

// Rehash recomputes every group uid, then the snapshot uid.
func (s *Snapshot) Rehash() {
	for i := range s.Groups {
		s.Groups[i].Rehash()
	}
	s.UID = SnapshotUID(s.Groups)
}

// Stale reports whether any stored uid differs from its derived value.
func (s Snapshot) Stale() bool {
	for _, g := range s.Groups {
		if g.UID != GroupUID(g.Name, g.Lessons) {
			return true
		}
	}
	return s.UID != SnapshotUID(s.Groups)
}
