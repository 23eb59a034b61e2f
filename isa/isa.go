// Package isa implements the instruction-set definition model (spec §6,
// §4.8): parsing and validating the YAML-shaped command-encoding schema
// an assembler/disassembler would consume. This module never encodes
// instructions itself — it only validates the schema and surfaces the
// text-byte width a command's encoding must be divisible by.
package isa

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Argument kinds recognised by the schema (spec §6).
const (
	ArgRegister    = "register"
	ArgDataAddress = "data_address"
	ArgTextAddress = "text_address"
	ArgPadding     = "padding"
	ArgImmediate   = "immediate"
)

// rawRegisterGroup is the on-disk shape of a register_groups entry.
type rawRegisterGroup struct {
	Length    uint8    `yaml:"length"`
	Registers []string `yaml:"registers"`
}

// rawArgument is the on-disk shape of one command argument. Kind-
// specific fields (Group, Bits) are optional depending on Type, mirroring
// the tagged union the Rust original decodes with serde's internally
// tagged enum support; yaml.v3 has no equivalent so we decode loosely and
// validate afterward.
type rawArgument struct {
	Type  string `yaml:"type"`
	Group string `yaml:"group,omitempty"`
	Bits  uint8  `yaml:"bits,omitempty"`
}

type rawCommand struct {
	Mnemonic  string        `yaml:"mnemonic"`
	Opcode    uint8         `yaml:"opcode"`
	Arguments []rawArgument `yaml:"arguments"`
}

// rawDefinition is the direct YAML decoding target for the ISA schema of
// spec §6.
type rawDefinition struct {
	OpcodeLength    uint8                        `yaml:"opcode_length"`
	OpcodeOffset    uint8                        `yaml:"opcode_offset"`
	TextByteLength  uint8                        `yaml:"text_byte_length"`
	DataByteLength  uint8                        `yaml:"data_byte_length"`
	TextAddressSize uint8                        `yaml:"text_address_size"`
	DataAddressSize uint8                        `yaml:"data_address_size"`
	RegisterGroups  map[string]rawRegisterGroup  `yaml:"register_groups"`
	Commands        []rawCommand                 `yaml:"commands"`
}

// RegisterGroup is a named set of registers sharing an encoding width.
type RegisterGroup struct {
	Length    uint8
	Registers []string
}

// ArgumentDefinition is one operand slot in a command's encoding.
type ArgumentDefinition struct {
	Kind  string // one of the Arg* constants
	Group RegisterGroup
	Bits  uint8
}

// Size returns the bit width this argument occupies in the encoded
// instruction.
func (a ArgumentDefinition) Size() uint8 {
	if a.Kind == ArgRegister {
		return a.Group.Length
	}
	return a.Bits
}

// CommandDefinition is one mnemonic's opcode and argument layout.
type CommandDefinition struct {
	Mnemonic  string
	Opcode    uint8
	Arguments []ArgumentDefinition
}

// ArgumentsSize returns the sum of all argument bit widths.
func (c CommandDefinition) ArgumentsSize() uint16 {
	var total uint16
	for _, a := range c.Arguments {
		total += uint16(a.Size())
	}
	return total
}

// CommandSize returns the total encoded instruction width in bits:
// opcode plus arguments.
func (c CommandDefinition) CommandSize(opcodeLength uint8) uint16 {
	return uint16(opcodeLength) + c.ArgumentsSize()
}

// Definition is a validated ISA description.
type Definition struct {
	OpcodeLength   uint8
	OpcodeOffset   uint8
	TextByteLength uint8
	DataByteLength uint8
	AddressSize    uint8
	RegisterGroups map[string]RegisterGroup
	Commands       []CommandDefinition
}

// ParseDefinition parses and validates an ISA definition document,
// enforcing every invariant in spec §4.8.
func ParseDefinition(text string) (*Definition, error) {
	var raw rawDefinition
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse ISA definition YAML")
	}
	return fromRaw(raw)
}

func fromRaw(raw rawDefinition) (*Definition, error) {
	if raw.TextAddressSize != raw.DataAddressSize {
		return nil, fmt.Errorf("differing text and data address sizes are not supported")
	}

	groups := make(map[string]RegisterGroup, len(raw.RegisterGroups))
	for name, g := range raw.RegisterGroups {
		groups[name] = RegisterGroup{Length: g.Length, Registers: g.Registers}
	}

	commands := make([]CommandDefinition, 0, len(raw.Commands))
	for _, rc := range raw.Commands {
		args := make([]ArgumentDefinition, 0, len(rc.Arguments))
		for _, ra := range rc.Arguments {
			arg, err := convertArgument(ra, groups)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", rc.Mnemonic, err)
			}
			args = append(args, arg)
		}
		commands = append(commands, CommandDefinition{
			Mnemonic:  rc.Mnemonic,
			Opcode:    rc.Opcode,
			Arguments: args,
		})
	}

	def := &Definition{
		OpcodeLength:   raw.OpcodeLength,
		OpcodeOffset:   raw.OpcodeOffset,
		TextByteLength: raw.TextByteLength,
		DataByteLength: raw.DataByteLength,
		AddressSize:    raw.TextAddressSize,
		RegisterGroups: groups,
		Commands:       commands,
	}

	for _, cmd := range def.Commands {
		for _, arg := range cmd.Arguments {
			switch arg.Kind {
			case ArgDataAddress:
				if arg.Bits != def.AddressSize {
					return nil, fmt.Errorf("data address size mismatch in %s", cmd.Mnemonic)
				}
			case ArgTextAddress:
				if arg.Bits != def.AddressSize {
					return nil, fmt.Errorf("text address size mismatch in %s", cmd.Mnemonic)
				}
			}
		}
	}

	opcodes := make(map[uint8]string, len(def.Commands))
	for _, cmd := range def.Commands {
		if owner, exists := opcodes[cmd.Opcode]; exists {
			return nil, fmt.Errorf("duplicate opcode: %d, both for %s and %s", cmd.Opcode, owner, cmd.Mnemonic)
		}
		opcodes[cmd.Opcode] = cmd.Mnemonic
	}

	for _, cmd := range def.Commands {
		if def.TextByteLength == 0 {
			return nil, fmt.Errorf("text byte length must be non-zero")
		}
		if cmd.CommandSize(def.OpcodeLength)%uint16(def.TextByteLength) != 0 {
			return nil, fmt.Errorf("command size not divisible by text byte length: %s (%d bits)",
				cmd.Mnemonic, cmd.CommandSize(def.OpcodeLength))
		}
	}

	return def, nil
}

func convertArgument(raw rawArgument, groups map[string]RegisterGroup) (ArgumentDefinition, error) {
	switch raw.Type {
	case ArgRegister:
		g, ok := groups[raw.Group]
		if !ok {
			return ArgumentDefinition{}, fmt.Errorf("register group not found: %s", raw.Group)
		}
		return ArgumentDefinition{Kind: ArgRegister, Group: g}, nil
	case ArgDataAddress, ArgTextAddress, ArgPadding, ArgImmediate:
		return ArgumentDefinition{Kind: raw.Type, Bits: raw.Bits}, nil
	default:
		return ArgumentDefinition{}, fmt.Errorf("unrecognised argument type: %s", raw.Type)
	}
}
