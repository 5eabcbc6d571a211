// Package client is the Go SDK for the hashledger REST API.
//
// # Writing
//
// Staging and sealing need an operator token when the server has auth
// enabled (ledgerctl token prints one):
//
//	c, err := client.New("http://localhost:8080",
//	    client.WithBearerToken(os.Getenv("LEDGER_TOKEN")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := c.Stage(ctx, "pay Alice 10"); err != nil {
//	    log.Fatal(err)
//	}
//	block, err := c.Seal(ctx)
//
// Seal returns an error wrapping ErrEmptyChain when the server has no chain
// to extend.
//
// # Reading
//
// Overview, Blocks, Block, Staged and Verify are public:
//
//	v, err := c.Verify(ctx)
//	if err == nil && !v.Valid {
//	    log.Printf("chain broken: %s", v.Error)
//	}
//
// Any other non-2xx response is returned as an *APIError.
package client
