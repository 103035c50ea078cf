// helpers.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"gitlab.com/kabes/go-poddir/internal/aerr"
	"gitlab.com/kabes/go-poddir/internal/server/srvsupport"
)

// writeServiceError translate service error into http response and log it
// with level matched to the error kind.
func writeServiceError(
	w http.ResponseWriter,
	r *http.Request,
	logger *zerolog.Logger,
	err error,
	msg string,
) {
	srvsupport.CheckAndWriteError(w, r, err)
	logger.WithLevel(aerr.LogLevelForError(err)).Err(err).Msg(msg)
}

// getSinceParameter from request url query.
func getSinceParameter(r *http.Request) (time.Time, error) {
	param := r.URL.Query().Get("since")
	if param == "" {
		return time.Time{}, nil
	}

	epoch, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse since %q error: %w", param, err)
	}

	return time.Unix(epoch, 0).UTC(), nil
}

// callback name restricted to plain js identifier with dots; anything else
// could inject markup into the response
var reJSONPName = regexp.MustCompile(`^[$\w.]+$`)

// jsonpWriter wrap response with jsonp function when valid function name is
// given in `jsonp` url parameter.
type jsonpWriter struct {
	http.ResponseWriter

	jsonp string
}

func newJSONPWriter(r *http.Request, w http.ResponseWriter) jsonpWriter {
	name := r.URL.Query().Get("jsonp")
	if name != "" && !reJSONPName.MatchString(name) {
		name = ""
	}

	return jsonpWriter{w, name}
}

//nolint:wrapcheck
func (j jsonpWriter) Write(buf []byte) (int, error) {
	if j.jsonp == "" {
		return j.ResponseWriter.Write(buf)
	}

	written := 0

	for _, chunk := range [][]byte{[]byte(j.jsonp + "("), buf, []byte(")")} {
		n, err := j.ResponseWriter.Write(chunk)
		written += n

		if err != nil {
			return written, err
		}
	}

	return written, nil
}
