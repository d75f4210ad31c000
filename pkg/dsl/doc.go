/*
Package dsl builds decision trees in Go code instead of YAML.

It is useful for embedding a custom tree in a host program and for tests:

	b := dsl.New("start")

	b.Ask("start", "Apakah Anda bisa login?").
		Option("Bisa", "ok").
		Option("Tidak bisa", "reset")

	b.Solve("ok", "Login berhasil.", "Lanjutkan pengisian SKP.")
	b.Solve("reset", "Login gagal.", "Reset password di MyASN.").Escalate()

	b.Contact(domain.Contact{Name: "Helpdesk", Role: "Tim IT", WhatsApp: "6281234567890"})

	tree, err := b.Build()
	// pass tree.Graph and tree.Contacts to skphelp.WithGraph(...)

Build runs the same checks as the YAML loader.
*/
package dsl
