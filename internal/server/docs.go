package server

import (
	"strings"

	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/resp"
)

func makeFlagsArray(flags []string) resp.Value {
	vals := make([]resp.Value, len(flags))
	for i, f := range flags {
		vals[i] = resp.MakeSimpleString(f)
	}
	return resp.MakeArray(vals)
}

// makeInfoCmdArray builds [name, arity, flags, first key, last key, step]
func makeInfoCmdArray(spec *command.Spec) resp.Value {
	return resp.MakeArray([]resp.Value{
		resp.MakeBulkString(strings.ToLower(spec.Name)),
		resp.MakeInteger(int64(spec.Arity)),
		makeFlagsArray(spec.Flags),
		resp.MakeInteger(int64(spec.FirstKey)),
		resp.MakeInteger(int64(spec.LastKey)),
		resp.MakeInteger(int64(spec.Step)),
	})
}

func getAllCommands() resp.Value {
	specs := command.Specs()

	cmdArray := make([]resp.Value, 0, len(specs))
	for _, spec := range specs {
		cmdArray = append(cmdArray, makeInfoCmdArray(spec))
	}
	return resp.MakeArray(cmdArray)
}

// getCommandsInfo returns the details of the named commands, nil for unknown names
func getCommandsInfo(names []string) resp.Value {
	cmdArray := make([]resp.Value, 0, len(names))
	for _, name := range names {
		spec, ok := command.Lookup(name)
		if !ok {
			cmdArray = append(cmdArray, resp.Value{Type: resp.TypeArray, IsNull: true})
			continue
		}
		cmdArray = append(cmdArray, makeInfoCmdArray(spec))
	}
	return resp.MakeArray(cmdArray)
}

// getCommandsDocs returns documentation for specified commands or all commands
// Format: [Name, [Summary, val, Since, val...], Name, [...]]
func getCommandsDocs(names []string) resp.Value {
	var targets []*command.Spec

	if len(names) == 0 {
		targets = command.Specs()
	} else {
		targets = make([]*command.Spec, 0, len(names))
		for _, name := range names {
			if spec, ok := command.Lookup(name); ok {
				targets = append(targets, spec)
			}
		}
	}

	result := make([]resp.Value, 0, len(targets)*2)

	for _, spec := range targets {
		result = append(result, resp.MakeBulkString(strings.ToLower(spec.Name)))

		props := []resp.Value{
			resp.MakeBulkString("summary"),
			resp.MakeBulkString(spec.Summary),
			resp.MakeBulkString("since"),
			resp.MakeBulkString(spec.Since),
			resp.MakeBulkString("group"),
			resp.MakeBulkString(spec.Group),
			resp.MakeBulkString("complexity"),
			resp.MakeBulkString(spec.Complexity),
		}

		result = append(result, resp.MakeArray(props))
	}

	return resp.MakeArray(result)
}
