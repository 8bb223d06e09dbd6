// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "gotal"})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})

	// Assemble commands
	as := root.AddSubtree(cmd.TreeDescriptor{Name: "assemble", Brief: "Assemble commands"})
	as.AddCommand(cmd.CommandDescriptor{
		Name:  "file",
		Brief: "Assemble a file and save the rom",
		Description: "Run the assembler on the specified file, producing a" +
			" rom file and symbol files if successful. The rom is loaded" +
			" into the session.",
		Usage: "assemble file <filename>",
		Data:  (*Host).cmdAssembleFile,
	})
	as.AddCommand(cmd.CommandDescriptor{
		Name:  "source",
		Brief: "Assemble source typed on the command line",
		Description: "Assemble the rest of the line as TAL source and load" +
			" the resulting rom into the session. Nothing is written to disk.",
		Usage: "assemble source <tal>...",
		Data:  (*Host).cmdAssembleSource,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "devices",
		Brief: "List devices",
		Description: "List the devices known to the assembler. If a device" +
			" name is given, list the addresses of its ports.",
		Usage: "devices [<name>]",
		Data:  (*Host).cmdDevices,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble the loaded rom",
		Description: "Disassemble the loaded rom starting at the requested" +
			" address or label. The number of instructions to disassemble" +
			" may be specified as an option.",
		Usage: "disassemble [<address>] [<count>]",
		Data:  (*Host).cmdDisassemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a rom file",
		Description: "Load the contents of a rom file into the session. If" +
			" the file has an associated symbol file, it is loaded too.",
		Usage: "load <filename>",
		Data:  (*Host).cmdLoad,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. Type the set" +
			" command without a variable name or value to display the current" +
			" values of all configuration variables.",
		Usage: "set <var> <value>",
		Data:  (*Host).cmdSet,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "symbols",
		Brief: "List symbols",
		Description: "List the symbols of the loaded rom, with their" +
			" addresses and sizes. Only symbols starting with prefix are" +
			" listed when one is given.",
		Usage: "symbols [<prefix>]",
		Data:  (*Host).cmdSymbols,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "tokens",
		Brief: "Dump the tokens of a source file",
		Description: "Run the lexer on the specified file and dump the" +
			" resulting token stream.",
		Usage: "tokens <filename>",
		Data:  (*Host).cmdTokens,
	})

	// Shortcuts
	root.AddShortcut("a", "assemble file")
	root.AddShortcut("as", "assemble source")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("l", "load")
	root.AddShortcut("s", "symbols")
	root.AddShortcut("?", "help")

	cmds = root
}
