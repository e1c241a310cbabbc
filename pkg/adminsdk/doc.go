/*
Package adminsdk holds the request, response and error types of the
scripthub admin API together with a Go client for it.

# Client vs Session

A Client represents one browser: its cookie jar holds the refresh_token and
csrf_session cookies. Public endpoints hang off the Client:

	client := adminsdk.NewClient("https://scripts.example.com")
	scripts, err := client.ListScripts(ctx)

Login returns a Session, which carries the access token and refreshes it
through the refresh cookie shortly before it expires:

	session, err := client.Login(ctx, password, "")
	if err != nil {
		return err
	}
	_, err = session.SaveScript(ctx, adminsdk.Script{Title: "Fly", ...})

Privileged form submissions (script save, backup restore, settings update)
need a CSRF nonce. Session fetches one per call.

# Errors

Every non-2xx response is returned as *Error. Compare against the
predefined values with errors.Is:

	if errors.Is(err, adminsdk.ErrRateLimited) {
		// back off
	}

Handlers use the same values to write responses with WriteError.
*/
package adminsdk
