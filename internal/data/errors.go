package data

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strconv"
	"strings"

	"placefinder-go/internal/biz"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mysql 语句超时与被中断的错误号
var mysqlTimeouts = map[uint16]bool{
	1317: true, // ER_QUERY_INTERRUPTED
	1969: true, // ER_STATEMENT_TIMEOUT
	3024: true, // ER_QUERY_TIMEOUT
}

var mysqlServerErrors = map[uint16]bool{
	1040: true, // too many connections
	1053: true, // server shutdown
	1205: true, // lock wait timeout
	1213: true, // deadlock
	2006: true, // server has gone away
	2013: true, // lost connection
}

// classify 把驱动错误归类为 *biz.StoreError。
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *biz.StoreError
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return storeError(biz.CodeStatementTimeout, "", err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return storeError(biz.CodeServerError, "", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return storeError(pgCode(pgErr.Code), pgErr.Code, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		code := biz.CodePermanent
		switch {
		case mysqlTimeouts[myErr.Number]:
			code = biz.CodeStatementTimeout
		case mysqlServerErrors[myErr.Number]:
			code = biz.CodeServerError
		}
		return storeError(code, strconv.Itoa(int(myErr.Number)), err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := biz.CodePermanent
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_INTERRUPT:
			code = biz.CodeStatementTimeout
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR:
			code = biz.CodeServerError
		}
		return storeError(code, strconv.Itoa(liteErr.Code()), err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return storeError(biz.CodeStatementTimeout, "", err)
		}
		return storeError(biz.CodeServerError, "", err)
	}
	return storeError(biz.CodePermanent, "", err)
}

// pgCode SQLSTATE 57014 为 statement_timeout，连接类与资源类错误视为服务端故障。
func pgCode(state string) biz.StoreErrorCode {
	if state == "57014" {
		return biz.CodeStatementTimeout
	}
	for _, class := range []string{"08", "53", "57P", "58", "XX"} {
		if strings.HasPrefix(state, class) {
			return biz.CodeServerError
		}
	}
	return biz.CodePermanent
}

func storeError(code biz.StoreErrorCode, backend string, err error) *biz.StoreError {
	return &biz.StoreError{Code: code, BackendCode: backend, Message: err.Error(), Err: err}
}
