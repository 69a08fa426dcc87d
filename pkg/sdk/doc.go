// Package ornprog runs the ORN prognosis model in process.
//
// A Client loads the Fine-Gray model, the reference grid and the reference
// curves once and answers curve, table and explanation queries without an
// HTTP hop. Explanations can optionally be cached in Redis.
//
//	client, _ := ornprog.Open(ctx, ornprog.WithConfigFile("config/local.yaml"))
//	defer client.Close()
//
//	in := ornprog.Features{"Age": 61, "Smoking": "Former", "Dmean": 48.5,
//	    "Extraction": "Yes", "Chemotherapy": "No"}
//	e, _ := client.Explain(ctx, in, "60")
//	for _, c := range e.Contributions {
//	    fmt.Printf("%-14s %+.4f\n", c.Feature, c.Value)
//	}
//
//	rows, _ := client.Table(ctx, in, "12, 24, 60")
package ornprog
