package code

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes a Code unit (and its nested functions) to the
// implementation-defined but build-stable `.emc` binary layout described
// in spec.md §6: label, id, instructions, constant pools, nested
// functions, import names, local and global name tables.
func (c *Code) Encode() []byte {
	var buf bytes.Buffer
	c.encodeInto(&buf, true)
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeF64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

func (c *Code) encodeInto(buf *bytes.Buffer, root bool) {
	writeString(buf, c.Label)
	writeU32(buf, uint32(c.ID))

	writeU32(buf, uint32(len(c.instructions)))
	for _, instr := range c.instructions {
		buf.WriteByte(byte(instr.Op))
		n := instr.Op.ArgCount()
		for i := 0; i < n; i++ {
			writeU32(buf, instr.Args[i])
		}
	}

	writeU32(buf, uint32(len(c.numConstants)))
	for _, v := range c.numConstants {
		writeF64(buf, v)
	}

	writeU32(buf, uint32(len(c.strConstants)))
	for _, v := range c.strConstants {
		writeString(buf, v)
	}

	writeU32(buf, uint32(len(c.importNames)))
	for _, v := range c.importNames {
		writeString(buf, v)
	}

	writeU32(buf, uint32(len(c.locals)))
	for _, v := range c.locals {
		writeString(buf, v)
	}

	if root {
		writeU32(buf, uint32(len(*c.globals)))
		for _, v := range *c.globals {
			writeString(buf, v)
		}
	}

	writeU32(buf, uint32(len(c.functions)))
	for _, f := range c.functions {
		f.encodeInto(buf, false)
	}
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) readString() (string, error) {
	n, err := d.readU32()
	if err != nil {
		return "", err
	}
	if d.pos+int(n) > len(d.data) {
		return "", fmt.Errorf("code: truncated string")
	}
	s := string(d.data[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) readU32() (uint32, error) {
	if d.pos+4 > len(d.data) {
		return 0, fmt.Errorf("code: truncated u32")
	}
	v := binary.LittleEndian.Uint32(d.data[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

func (d *decoder) readF64() (float64, error) {
	if d.pos+8 > len(d.data) {
		return 0, fmt.Errorf("code: truncated f64")
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(d.data[d.pos : d.pos+8]))
	d.pos += 8
	return v, nil
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, fmt.Errorf("code: truncated byte")
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

// Decode deserializes a `.emc` byte stream produced by Encode.
func Decode(data []byte) (*Code, error) {
	d := &decoder{data: data}
	globals := make([]string, 0)
	counter := 0
	c, err := decodeInto(d, &globals, &counter, true)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func decodeInto(d *decoder, globals *[]string, nextFuncID *int, root bool) (*Code, error) {
	label, err := d.readString()
	if err != nil {
		return nil, err
	}
	id, err := d.readU32()
	if err != nil {
		return nil, err
	}

	c := &Code{
		Label:          label,
		ID:             int(id),
		functionLabels: make(map[string]int),
		globals:        globals,
		nextFuncID:     nextFuncID,
	}

	numInstr, err := d.readU32()
	if err != nil {
		return nil, err
	}
	c.instructions = make([]Instruction, 0, numInstr)
	for i := uint32(0); i < numInstr; i++ {
		opb, err := d.readByte()
		if err != nil {
			return nil, err
		}
		op := Op(opb)
		var instr Instruction
		instr.Op = op
		n := op.ArgCount()
		for a := 0; a < n; a++ {
			v, err := d.readU32()
			if err != nil {
				return nil, err
			}
			instr.Args[a] = v
		}
		c.instructions = append(c.instructions, instr)
	}

	numN, err := d.readU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numN; i++ {
		v, err := d.readF64()
		if err != nil {
			return nil, err
		}
		c.numConstants = append(c.numConstants, v)
	}

	numS, err := d.readU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numS; i++ {
		v, err := d.readString()
		if err != nil {
			return nil, err
		}
		c.strConstants = append(c.strConstants, v)
	}

	numImp, err := d.readU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numImp; i++ {
		v, err := d.readString()
		if err != nil {
			return nil, err
		}
		c.importNames = append(c.importNames, v)
	}

	numLoc, err := d.readU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numLoc; i++ {
		v, err := d.readString()
		if err != nil {
			return nil, err
		}
		c.locals = append(c.locals, v)
	}

	if root {
		numG, err := d.readU32()
		if err != nil {
			return nil, err
		}
		g := make([]string, 0, numG)
		for i := uint32(0); i < numG; i++ {
			v, err := d.readString()
			if err != nil {
				return nil, err
			}
			g = append(g, v)
		}
		*globals = g
	}

	numFn, err := d.readU32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numFn; i++ {
		fn, err := decodeInto(d, globals, nextFuncID, false)
		if err != nil {
			return nil, err
		}
		c.functionLabels[fn.Label] = len(c.functions)
		c.functions = append(c.functions, fn)
	}

	return c, nil
}
