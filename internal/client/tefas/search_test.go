package tefas

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

const searchDayBody = `{"data":[
	{"TARIH":1735776000000,"FONKODU":"TQE","FONUNVAN":"Test Equity Fund","FIYAT":"0.05"},
	{"TARIH":1735776000000,"FONKODU":"ABB","FONUNVAN":"Another Bond Basket","FIYAT":"1.10"},
	{"TARIH":1735776000000,"FONKODU":"QEX","FONUNVAN":"Quality Equity Extra","FIYAT":"2.30"}
]}`

func TestSearchFunds_MatchesCodeAndName(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: http.StatusOK, body: searchDayBody},
	}}
	c := newTestClient(transport)

	funds, err := c.SearchFunds(context.Background(), "equity", 10)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(funds) != 2 {
		t.Fatalf("len=%d want 2", len(funds))
	}
	if funds[0].FundCode != "TQE" || funds[1].FundCode != "QEX" {
		t.Fatalf("codes=%s,%s", funds[0].FundCode, funds[1].FundCode)
	}
}

func TestSearchFunds_LimitApplied(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: http.StatusOK, body: searchDayBody},
	}}
	c := newTestClient(transport)

	funds, err := c.SearchFunds(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(funds) != 2 {
		t.Fatalf("len=%d want 2", len(funds))
	}
}

func TestSearchFunds_WalksBackToTradingDay(t *testing.T) {
	transport := &scriptedTransport{responses: []scriptedResponse{
		{status: http.StatusOK, body: `{"data":[]}`},
		{status: http.StatusOK, body: `{"data":[]}`},
		{status: http.StatusOK, body: searchDayBody},
	}}
	c := newTestClient(transport)

	funds, err := c.SearchFunds(context.Background(), "tqe", 10)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(funds) != 1 || funds[0].FundCode != "TQE" {
		t.Fatalf("funds=%+v", funds)
	}
	if transport.calls != 3 {
		t.Fatalf("calls=%d want 3", transport.calls)
	}
}

func TestSearchFunds_NoTradingDaysInWindow(t *testing.T) {
	var responses []scriptedResponse
	for i := 0; i < searchLookbackDays; i++ {
		responses = append(responses, scriptedResponse{status: http.StatusOK, body: `{"data":[]}`})
	}
	c := newTestClient(&scriptedTransport{responses: responses})

	_, err := c.SearchFunds(context.Background(), "tqe", 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}
