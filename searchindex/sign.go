package searchindex

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// emptyPayloadHash is the sha256 of an empty body.
const emptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// signingTransport SigV4-signs every outgoing request for the search
// service. Signing happens inside the transport so each retry attempt
// gets a fresh signature.
type signingTransport struct {
	next    http.RoundTripper
	signer  *v4.Signer
	creds   aws.CredentialsProvider
	region  string
	service string
}

func (t *signingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	payloadHash := emptyPayloadHash
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(data)
		payloadHash = hex.EncodeToString(sum[:])
		req.Body = io.NopCloser(bytes.NewReader(data))
		req.ContentLength = int64(len(data))
	}

	creds, err := t.creds.Retrieve(req.Context())
	if err != nil {
		return nil, err
	}
	if err = t.signer.SignHTTP(req.Context(), creds, req, payloadHash, t.service, t.region, time.Now().UTC()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
