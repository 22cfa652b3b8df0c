package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNew() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestNewf() {
	err := Newf(ErrCodeTickerNotFound, "ticker %s not found", "ZZZZ")
	suite.Equal("ticker ZZZZ not found", err.Message)
	suite.Equal("[200] ticker ZZZZ not found", err.Error())
}

func (suite *ErrorTestSuite) TestWrap() {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeFetchFailed, "yahoo request failed", cause)
	suite.Equal(cause, err.Unwrap())
	suite.Equal("[202] yahoo request failed: connection reset", err.Error())
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestWrapf() {
	cause := errors.New("bad json")
	err := Wrapf(ErrCodeParseFailed, cause, "decode %s", "chart")
	suite.Equal("decode chart", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestGetCodeThroughFmtWrap() {
	inner := New(ErrCodeNoDataForPeriod, "no bars")
	outer := fmt.Errorf("collect: %w", inner)
	suite.Equal(ErrCodeNoDataForPeriod, GetCode(outer))
	suite.True(HasCode(outer, ErrCodeNoDataForPeriod))
	suite.False(HasCode(outer, ErrCodeTickerNotFound))
}

func (suite *ErrorTestSuite) TestGetCodeUnknown() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
}

func (suite *ErrorTestSuite) TestInsufficientData() {
	err := NewInsufficientDataErrorf(200, 199, "AAPL", "need %d bars, got %d", 200, 199)
	suite.Equal("need 200 bars, got 199", err.Error())
	suite.Equal(200, err.Required)
	suite.Equal(199, err.Actual)
	suite.Equal("AAPL", err.Symbol)

	wrapped := fmt.Errorf("analyze: %w", err)
	suite.True(IsInsufficientDataError(wrapped))
	suite.Equal(ErrCodeInsufficientData, GetCode(wrapped))

	var target *InsufficientDataError
	suite.True(As(wrapped, &target))
	suite.Equal(199, target.Actual)
}

func (suite *ErrorTestSuite) TestIsInsufficientDataErrorFalse() {
	suite.False(IsInsufficientDataError(New(ErrCodeFetchFailed, "x")))
	suite.False(IsInsufficientDataError(nil))
}

func (suite *ErrorTestSuite) TestInsufficientDataDefaultMessage() {
	err := &InsufficientDataError{Required: 200, Actual: 126, Symbol: "MSFT", Indicator: "SMA200"}
	suite.Equal("MSFT SMA200: need 200 bars, have 126", err.Error())

	err.Indicator = ""
	suite.Equal("MSFT: need 200 bars, have 126", err.Error())
}
