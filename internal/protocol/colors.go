package protocol

import (
	"github.com/furcwire-project/furcwire/internal/events"
)

// Colour code version bytes. Only the legacy layout is attested on the
// wire; the 'u', 'v' and 'w' layouts are provisional.
const (
	ColorVersionLegacy  byte = 't' // 10 raw palette bytes
	ColorVersionClassic byte = 'u' // 10 one-digit slots, gender, species, digo
	ColorVersionWide    byte = 'v' // every field two digits
	ColorVersionMasked  byte = 'w' // presence mask then only the present fields
)


// ColorSlots is the number of palette slots in a colour code.
const ColorSlots = 10

const (
	maskGender  = 1 << ColorSlots
	maskSpecies = 1 << (ColorSlots + 1)
	maskDigo    = 1 << (ColorSlots + 2)
)

// ReadColorCode decodes a colour code starting at the version byte.
func ReadColorCode(b *Buffer) (events.ColorCode, error) {
	start := b.Offset()
	version, err := b.ReadByte()
	if err != nil {
		return events.ColorCode{}, err
	}

	c := events.ColorCode{Version: version, Colors: make([]int, ColorSlots)}
	switch version {
	case ColorVersionLegacy:
		err = readLegacy(b, c.Colors)
	case ColorVersionClassic:
		if err = readSlots(b, c.Colors, 1); err == nil {
			err = readTrailer(b, &c, 1)
		}
	case ColorVersionWide:
		if err = readSlots(b, c.Colors, 2); err == nil {
			err = readTrailer(b, &c, 2)
		}
	case ColorVersionMasked:
		err = readMasked(b, &c)
	default:
		return events.ColorCode{}, b.fail("colour code", start, ErrUnknownVersion)
	}
	if err != nil {
		return events.ColorCode{}, err
	}

	c.Raw = append([]byte(nil), b.Bytes()[start:b.Offset()]...)
	return c, nil
}

// readLegacy accepts any ten bytes. A byte that is not a base-220 digit
// leaves its slot at -1; Raw keeps the original bytes.
func readLegacy(b *Buffer, slots []int) error {
	code, err := b.Read(ColorSlots)
	if err != nil {
		return err
	}
	for i := range code {
		slots[i] = -1
		if d, err := Decode220(code[i : i+1]); err == nil {
			slots[i] = d
		}
	}
	return nil
}

func readSlots(b *Buffer, slots []int, width int) error {
	for i := range slots {
		v, err := b.Read220(width)
		if err != nil {
			return err
		}
		slots[i] = v
	}
	return nil
}

func readTrailer(b *Buffer, c *events.ColorCode, width int) error {
	f, err := read220Fields(b, width, width, width)
	if err != nil {
		return err
	}
	c.Gender, c.Species, c.Digo = f[0], f[1], f[2]
	return nil
}

func readMasked(b *Buffer, c *events.ColorCode) error {
	mask, err := b.Read220(2)
	if err != nil {
		return err
	}
	c.Mask = mask

	for i := 0; i < ColorSlots; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		if c.Colors[i], err = b.Read220(2); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		bit int
		dst *int
	}{
		{maskGender, &c.Gender},
		{maskSpecies, &c.Species},
		{maskDigo, &c.Digo},
	} {
		if mask&f.bit == 0 {
			continue
		}
		if *f.dst, err = b.Read220(1); err != nil {
			return err
		}
	}
	return nil
}

// WriteColorCode appends c in the layout selected by its version.
func (b *Builder) WriteColorCode(c events.ColorCode) *Builder {
	slot := func(i int) int {
		if i < len(c.Colors) {
			return c.Colors[i]
		}
		return 0
	}

	b.WriteChar(c.Version)
	switch c.Version {
	case ColorVersionLegacy:
		if len(c.Raw) == 1+ColorSlots && c.Raw[0] == ColorVersionLegacy {
			b.WriteBytes(c.Raw[1:])
			break
		}
		for i := 0; i < ColorSlots; i++ {
			b.Write220(slot(i), 1)
		}
	case ColorVersionClassic, ColorVersionWide:
		width := 1
		if c.Version == ColorVersionWide {
			width = 2
		}
		for i := 0; i < ColorSlots; i++ {
			b.Write220(slot(i), width)
		}
		b.Write220(c.Gender, width).Write220(c.Species, width).Write220(c.Digo, width)
	case ColorVersionMasked:
		b.Write220(c.Mask, 2)
		for i := 0; i < ColorSlots; i++ {
			if c.Mask&(1<<i) != 0 {
				b.Write220(slot(i), 2)
			}
		}
		if c.Mask&maskGender != 0 {
			b.Write220(c.Gender, 1)
		}
		if c.Mask&maskSpecies != 0 {
			b.Write220(c.Species, 1)
		}
		if c.Mask&maskDigo != 0 {
			b.Write220(c.Digo, 1)
		}
	default:
		if b.err == nil {
			b.err = ErrUnknownVersion
		}
	}
	return b
}
