package main

import "fmt"

func (c *ModelsCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g, c.Cost)
	if err != nil {
		return err
	}
	cfg.Audit.Backend = "none"
	cfg.Events.Enabled = false

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	llm := app.Client()
	pricing := cfg.PricingTable()
	for _, name := range llm.AvailableModels() {
		marker := " "
		if name == llm.DefaultModel() {
			marker = "*"
		}
		if p, ok := pricing.Lookup(name); ok {
			fmt.Fprintf(g.Out, "%s %s input=%g output=%g\n", marker, name, p.InputPer1M, p.OutputPer1M)
			continue
		}
		fmt.Fprintf(g.Out, "%s %s\n", marker, name)
	}
	return nil
}
