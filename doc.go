/*
Package skphelp is the helpdesk for SKP (Sasaran Kinerja Pegawai) and the E-Kinerja BKN application.

It combines a guided troubleshooting tree, where employees answer a handful of
questions and end at either a self-service solution or a human contact, with the
supporting helpdesk portal: a searchable FAQ, consultation tickets, an AI assistant
and a real-time SKP status lookup.

# Architecture

The troubleshooting flow is a read-only decision graph walked by sessions. A
session only stores the path of visited node ids, so going back is a pop and
restarting truncates to the root. Sessions are persisted through a StateStore
(memory, file or Redis) and every mutation is a locked read-modify-write.

The helpdesk services sit next to it and share the same ports: they can be
served over HTTP, over MCP for AI agents, or driven from the terminal.

# Usage

	app, err := skphelp.New(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	view, _ := app.Troubleshoot.Start(ctx)
	view, _ = app.Troubleshoot.Advance(ctx, view.SessionID, "tech_issue")
	fmt.Println(view.Node.Text)
*/
package skphelp
