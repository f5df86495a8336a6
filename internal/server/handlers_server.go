package server

import (
	"github.com/eternalApril/kilodb/internal/command"
	"github.com/eternalApril/kilodb/internal/resp"
)

// ping handles the PING command
func ping(ctx *cmdContext) resp.Value {
	cmd := as[*command.Ping](ctx.cmd)

	if cmd.HasMessage {
		return bulkBytes(cmd.Message)
	}

	return resp.MakeSimpleString("PONG")
}

// echo handles the ECHO command
func echo(ctx *cmdContext) resp.Value {
	cmd := as[*command.Echo](ctx.cmd)

	return bulkBytes(cmd.Message)
}

// flushdb handles the FLUSHDB command. Values and deadlines go together under the keyspace lock
func flushdb(ctx *cmdContext) resp.Value {
	_ = as[*command.FlushDB](ctx.cmd)

	ctx.tx.Clear()

	return resp.MakeOK()
}

// dbsize handles the DBSIZE command. Expired keys are purged first, so only live keys are counted
func dbsize(ctx *cmdContext) resp.Value {
	_ = as[*command.DBSize](ctx.cmd)

	return resp.MakeInteger(int64(ctx.tx.Len()))
}

// commandInfo handles COMMAND and its COUNT, INFO and DOCS subcommands
func commandInfo(ctx *cmdContext) resp.Value {
	cmd := as[*command.Info](ctx.cmd)

	switch cmd.Sub {
	case "COUNT":
		return resp.MakeInteger(int64(len(command.Specs())))
	case "DOCS":
		return getCommandsDocs(cmd.Names)
	case "INFO":
		if len(cmd.Names) > 0 {
			return getCommandsInfo(cmd.Names)
		}
	}

	return getAllCommands()
}
