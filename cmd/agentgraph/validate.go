package main

import "fmt"

func (c *ValidateCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g, nil)
	if err != nil {
		return err
	}
	// Validation never calls a model.
	cfg.Model.Provider = "mock"
	cfg.Audit.Backend = "none"
	cfg.Events.Enabled = false

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	cat, err := app.LoadCatalog(c.Catalog)
	if err != nil {
		return err
	}
	sg, err := app.LoadGraphFile(c.Graph, cat)
	if err != nil {
		return err
	}

	for _, s := range sg.States() {
		fmt.Fprintf(g.Out, "state %s\n", s.Name())
		for _, conn := range s.Connections() {
			fmt.Fprintf(g.Out, "  -> %s (pass_context=%t)\n", conn.To.Name(), sg.ShouldPassContext(conn))
		}
	}
	if cur := sg.Current(); cur != nil {
		fmt.Fprintf(g.Out, "initial %s\n", cur.Name())
	}
	fmt.Fprintf(g.Out, "ok: %d states, %d agents in catalog\n", len(sg.States()), cat.Len())
	return nil
}
