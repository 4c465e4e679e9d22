package baostock

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Wire format. A request frame is
//
//	version \x01 msgType \x01 bodyLen(10 digits) body \x01 crc32 \n
//
// and a response frame is header + body + terminator, with the body of
// compressed message types deflated by zlib.
const (
	clientVersion = "00.9.10"
	fieldSep      = "\x01"
	headerLen     = len(clientVersion) + 1 + 2 + 1 + 10
	terminator    = "<![CDATA[]]>\n"
	statusOK      = "0"
)

// Message types (request / response pairs).
const (
	msgLogin          = "00"
	msgLoginResp      = "01"
	msgLogout         = "02"
	msgLogoutResp     = "03"
	msgStockBasic     = "45"
	msgStockBasicResp = "46"
	msgIndustry       = "59"
	msgIndustryResp   = "60"
	msgKData          = "95"
	msgKDataResp      = "96"
)

// Status codes that mean the login is gone and the session must be rebuilt.
var sessionLostCodes = map[string]bool{
	"10001001": true, // user not logged in
	"10002007": true, // network error
}

var compressed = map[string]bool{msgKDataResp: true}

// dataField is the index of the JSON record set in query responses.
const dataField = 6

var errMalformed = errors.New("malformed baostock frame")

// StatusError is a non-zero status code returned by the server.
type StatusError struct {
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("baostock status %s: %s", e.Code, e.Message)
}

// SessionLost reports whether the server no longer recognizes the login.
func (e *StatusError) SessionLost() bool {
	return sessionLostCodes[e.Code]
}

func header(msgType string, bodyLen int) string {
	return clientVersion + fieldSep + msgType + fieldSep + fmt.Sprintf("%010d", bodyLen)
}

// encodeRequest builds a request frame for msgType with the given body fields.
func encodeRequest(msgType string, fields ...string) []byte {
	body := strings.Join(fields, fieldSep)
	msg := header(msgType, len(body)) + body
	crc := crc32.ChecksumIEEE([]byte(msg))
	return []byte(msg + fieldSep + strconv.FormatUint(uint64(crc), 10) + "\n")
}

// readResponse reads one response frame and returns its type and body fields.
func readResponse(r *bufio.Reader) (string, []string, error) {
	var frame []byte
	for {
		chunk, err := r.ReadSlice('\n')
		frame = append(frame, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		if bytes.HasSuffix(frame, []byte(terminator)) {
			break
		}
	}
	return decodeResponse(frame)
}

func decodeResponse(frame []byte) (string, []string, error) {
	if len(frame) < headerLen+len(terminator) {
		return "", nil, errMalformed
	}
	head := strings.Split(string(frame[:headerLen]), fieldSep)
	if len(head) != 3 {
		return "", nil, errMalformed
	}
	msgType := head[1]
	body := frame[headerLen : len(frame)-len(terminator)]

	if compressed[msgType] {
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", errMalformed, err)
		}
		defer zr.Close()
		if body, err = io.ReadAll(zr); err != nil {
			return "", nil, fmt.Errorf("%w: %w", errMalformed, err)
		}
	}
	return msgType, strings.Split(string(body), fieldSep), nil
}

// checkStatus converts a non-zero status into a *StatusError.
func checkStatus(fields []string) error {
	if len(fields) < 2 {
		return errMalformed
	}
	if fields[0] != statusOK {
		return &StatusError{Code: fields[0], Message: fields[1]}
	}
	return nil
}

// records extracts the row arrays of a query response.
func records(fields []string) ([][]string, error) {
	if len(fields) <= dataField {
		return nil, errMalformed
	}
	data := strings.TrimSpace(fields[dataField])
	if data == "" {
		return nil, nil
	}
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: record set is not JSON", errMalformed)
	}

	var rows [][]string
	gjson.Get(data, "record").ForEach(func(_, rec gjson.Result) bool {
		var row []string
		rec.ForEach(func(_, cell gjson.Result) bool {
			row = append(row, cell.String())
			return true
		})
		rows = append(rows, row)
		return true
	})
	return rows, nil
}
