// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package codegen

import (
	"fmt"
	"io"
	"strings"

	"github.com/awslabs/ar-bytecode-tools/analysis/config"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an output format for method bodies
type Format string

const (
	FormatText    Format = config.OutputText
	FormatYAML    Format = config.OutputYAML
	FormatMsgpack Format = config.OutputMsgpack
)

// ParseFormat returns the format with the given name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatText, FormatYAML, FormatMsgpack:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Record is the serialized form of a method body
type Record struct {
	Name         string           `yaml:"name" msgpack:"name"`
	Desc         string           `yaml:"desc,omitempty" msgpack:"desc,omitempty"`
	Instructions []string         `yaml:"instructions" msgpack:"instructions"`
	TryCatch     []TryCatchRecord `yaml:"try-catch,omitempty" msgpack:"try-catch,omitempty"`
}

// TryCatchRecord is the serialized form of a TryCatchBlock. An empty type catches everything.
type TryCatchRecord struct {
	Start   string `yaml:"start" msgpack:"start"`
	End     string `yaml:"end" msgpack:"end"`
	Handler string `yaml:"handler" msgpack:"handler"`
	Type    string `yaml:"type,omitempty" msgpack:"type,omitempty"`
}

// NewRecord returns the record of the body. Labels are written as "L<id>:" and statements are indented.
func NewRecord(body *MethodBody) Record {
	r := Record{Name: body.Name, Desc: body.Desc}
	for _, insn := range body.Instructions {
		switch x := insn.(type) {
		case *LabelInsn:
			r.Instructions = append(r.Instructions, x.Label.String()+":")
		case *StmtInsn:
			r.Instructions = append(r.Instructions, "  "+x.Stmt.String())
		}
	}
	for _, tc := range body.TryCatchBlocks {
		r.TryCatch = append(r.TryCatch, TryCatchRecord{
			Start:   tc.Start.String(),
			End:     tc.End.String(),
			Handler: tc.Handler.String(),
			Type:    tc.Type,
		})
	}
	return r
}

// Encode writes the body to w in the given format
func Encode(w io.Writer, body *MethodBody, format Format) error {
	r := NewRecord(body)
	switch format {
	case FormatText:
		return writeText(w, r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// DecodeRecord reads a record written by Encode. The text format cannot be decoded.
func DecodeRecord(r io.Reader, format Format) (Record, error) {
	var rec Record
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&rec)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&rec)
	default:
		err = fmt.Errorf("cannot decode output format %q", format)
	}
	return rec, err
}

func writeText(w io.Writer, r Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "method %s%s\n", r.Name, r.Desc)
	for _, insn := range r.Instructions {
		b.WriteString(insn)
		b.WriteByte('\n')
	}
	for _, tc := range r.TryCatch {
		t := tc.Type
		if t == "" {
			t = "*"
		}
		fmt.Fprintf(&b, "try %s %s catch %s %s\n", tc.Start, tc.End, t, tc.Handler)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
