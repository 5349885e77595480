// go-rfidbox
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-rfidbox.
//
// go-rfidbox is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-rfidbox is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-rfidbox; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Command secretgen prints a random passphrase and MIFARE key as a YAML
// snippet for the rfidbox configuration.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ZaparooProject/go-rfidbox"
)

type snippet struct {
	Card   *cardSnippet   `yaml:"card,omitempty"`
	Secret *secretSnippet `yaml:"secret,omitempty"`
}

type cardSnippet struct {
	Key string `yaml:"key"`
}

type secretSnippet struct {
	Passphrase string `yaml:"passphrase"`
}

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func run() int {
	length := flag.Int("length", rfidbox.DefaultSecretLength, "Passphrase length")
	withKey := flag.Bool("key", true, "Also generate a sector key")
	flag.Parse()

	if *length > rfidbox.MaxSecretLength {
		_, _ = fmt.Fprintf(os.Stderr, "length %d exceeds the %d character limit\n",
			*length, rfidbox.MaxSecretLength)
		return 1
	}

	secret, err := rfidbox.GenerateSecret(*length)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	out := snippet{Secret: &secretSnippet{Passphrase: secret}}

	if *withKey {
		key, err := rfidbox.GenerateKey()
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		out.Card = &cardSnippet{Key: strings.ToUpper(hex.EncodeToString(key[:]))}
		clear(key[:])
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	_ = enc.Close()
	return 0
}
