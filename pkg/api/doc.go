// Package api is the domain call surface of an ESS appliance.
//
// A Client pairs an authenticated session.Session with the advertisement it
// was resolved from. Every call is a thin parameter substitution over
// Session.AuthenticatedRequest, which handles token expiry transparently.
//
//	browser, _ := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
//	client, err := api.Connect(ctx, browser, "ABC1234567", password,
//	    session.WithInsecureSkipVerify(true))
//	if err != nil {
//	    return err
//	}
//	home, err := client.GetHome(ctx)
//
// Parameters are validated before any network traffic; invalid ones fail
// with esserr.ErrInvalidArgument.
package api
