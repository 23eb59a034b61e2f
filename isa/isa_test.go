package isa

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validDefinition = `
opcode_length: 4
opcode_offset: 0
text_byte_length: 4
data_byte_length: 8
text_address_size: 12
data_address_size: 12
register_groups:
  general:
    length: 2
    registers: [a, b, c, d]
commands:
  - mnemonic: nop
    opcode: 0
    arguments: []
  - mnemonic: mov
    opcode: 1
    arguments:
      - type: register
        group: general
      - type: register
        group: general
  - mnemonic: jmp
    opcode: 2
    arguments:
      - type: text_address
        bits: 12
`

func TestParseDefinitionValid(t *testing.T) {
	def, err := ParseDefinition(validDefinition)
	require.NoError(t, err)
	require.Len(t, def.Commands, 3)

	mov := def.Commands[1]
	require.Equal(t, uint16(4), mov.ArgumentsSize())
	require.Equal(t, uint16(8), mov.CommandSize(def.OpcodeLength))
}

func TestParseDefinitionMismatchedAddressSizes(t *testing.T) {
	const doc = `
opcode_length: 4
text_byte_length: 6
text_address_size: 12
data_address_size: 16
register_groups: {}
commands: []
`
	_, err := ParseDefinition(doc)
	require.Error(t, err)
}

func TestParseDefinitionDuplicateOpcode(t *testing.T) {
	const doc = `
opcode_length: 4
text_byte_length: 6
text_address_size: 0
data_address_size: 0
register_groups: {}
commands:
  - mnemonic: a
    opcode: 1
    arguments: []
  - mnemonic: b
    opcode: 1
    arguments: []
`
	_, err := ParseDefinition(doc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate opcode")
}

func TestParseDefinitionIndivisibleCommandSize(t *testing.T) {
	const doc = `
opcode_length: 3
text_byte_length: 6
text_address_size: 0
data_address_size: 0
register_groups: {}
commands:
  - mnemonic: odd
    opcode: 0
    arguments:
      - type: padding
        bits: 1
`
	_, err := ParseDefinition(doc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not divisible")
}

func TestParseDefinitionUnknownRegisterGroup(t *testing.T) {
	const doc = `
opcode_length: 4
text_byte_length: 6
text_address_size: 0
data_address_size: 0
register_groups: {}
commands:
  - mnemonic: mov
    opcode: 0
    arguments:
      - type: register
        group: missing
`
	_, err := ParseDefinition(doc)
	require.Error(t, err)
}

func TestParseDefinitionAddressSizeMismatch(t *testing.T) {
	const doc = `
opcode_length: 4
text_byte_length: 4
text_address_size: 12
data_address_size: 12
register_groups: {}
commands:
  - mnemonic: jmp
    opcode: 0
    arguments:
      - type: text_address
        bits: 8
`
	_, err := ParseDefinition(doc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "address size mismatch")
}

func TestParseDefinitionInvalidYAML(t *testing.T) {
	_, err := ParseDefinition("not: [valid yaml")
	require.Error(t, err)
}
