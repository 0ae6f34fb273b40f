package dict

import "github.com/finexio/fixwire/internal/field"

// Static definition tables for FIX 4.4, produced offline by the schema
// generator and checked in as data. The set covers the full session layer and
// the business messages the engine is deployed against.

// Well-known tags referenced across the engine.
const (
	TagBeginString     = 8
	TagBodyLength      = 9
	TagCheckSum        = 10
	TagMsgType         = 35
	TagMsgSeqNum       = 34
	TagSenderCompID    = 49
	TagTargetCompID    = 56
	TagSendingTime     = 52
	TagPossDupFlag     = 43
	TagOrigSendingTime = 122

	TagTestReqID           = 112
	TagEncryptMethod       = 98
	TagHeartBtInt          = 108
	TagResetSeqNumFlag     = 141
	TagBeginSeqNo          = 7
	TagEndSeqNo            = 16
	TagRefSeqNum           = 45
	TagRefTagID            = 371
	TagRefMsgType          = 372
	TagSessionRejectReason = 373
	TagText                = 58
	TagGapFillFlag         = 123
	TagNewSeqNo            = 36
	TagRawDataLength       = 95
	TagRawData             = 96
)

// Message type tokens for the session layer.
const (
	MsgTypeHeartbeat     = "0"
	MsgTypeTestRequest   = "1"
	MsgTypeResendRequest = "2"
	MsgTypeReject        = "3"
	MsgTypeSequenceReset = "4"
	MsgTypeLogout        = "5"
	MsgTypeLogon         = "A"
)

// HeaderComponent is the name of the standard header layout shared by every
// message. BeginString, BodyLength, and MsgType are framing concerns owned by
// the codec and do not appear in it.
const HeaderComponent = "StandardHeader"

var fix44Fields = []FieldDef{
	{Tag: TagBeginString, Name: "BeginString", Kind: field.KindString},
	{Tag: TagBodyLength, Name: "BodyLength", Kind: field.KindInt},
	{Tag: TagCheckSum, Name: "CheckSum", Kind: field.KindString},
	{Tag: TagMsgType, Name: "MsgType", Kind: field.KindString},
	{Tag: TagMsgSeqNum, Name: "MsgSeqNum", Kind: field.KindInt},
	{Tag: TagSenderCompID, Name: "SenderCompID", Kind: field.KindString},
	{Tag: TagTargetCompID, Name: "TargetCompID", Kind: field.KindString},
	{Tag: TagSendingTime, Name: "SendingTime", Kind: field.KindUTCTimestamp},
	{Tag: TagPossDupFlag, Name: "PossDupFlag", Kind: field.KindBool},
	{Tag: TagOrigSendingTime, Name: "OrigSendingTime", Kind: field.KindUTCTimestamp},

	{Tag: TagTestReqID, Name: "TestReqID", Kind: field.KindString},
	{Tag: TagEncryptMethod, Name: "EncryptMethod", Kind: field.KindInt},
	{Tag: TagHeartBtInt, Name: "HeartBtInt", Kind: field.KindInt},
	{Tag: TagResetSeqNumFlag, Name: "ResetSeqNumFlag", Kind: field.KindBool},
	{Tag: TagBeginSeqNo, Name: "BeginSeqNo", Kind: field.KindInt},
	{Tag: TagEndSeqNo, Name: "EndSeqNo", Kind: field.KindInt},
	{Tag: TagRefSeqNum, Name: "RefSeqNum", Kind: field.KindInt},
	{Tag: TagRefTagID, Name: "RefTagID", Kind: field.KindInt},
	{Tag: TagRefMsgType, Name: "RefMsgType", Kind: field.KindString},
	{Tag: TagSessionRejectReason, Name: "SessionRejectReason", Kind: field.KindInt},
	{Tag: TagText, Name: "Text", Kind: field.KindString},
	{Tag: TagGapFillFlag, Name: "GapFillFlag", Kind: field.KindBool},
	{Tag: TagNewSeqNo, Name: "NewSeqNo", Kind: field.KindInt},
	{Tag: TagRawDataLength, Name: "RawDataLength", Kind: field.KindInt},
	{Tag: TagRawData, Name: "RawData", Kind: field.KindData, LengthTag: TagRawDataLength},

	// Order entry and executions.
	{Tag: 6, Name: "AvgPx", Kind: field.KindDecimal},
	{Tag: 11, Name: "ClOrdID", Kind: field.KindString},
	{Tag: 14, Name: "CumQty", Kind: field.KindDecimal},
	{Tag: 15, Name: "Currency", Kind: field.KindString},
	{Tag: 17, Name: "ExecID", Kind: field.KindString},
	{Tag: 37, Name: "OrderID", Kind: field.KindString},
	{Tag: 38, Name: "OrderQty", Kind: field.KindDecimal},
	{Tag: 39, Name: "OrdStatus", Kind: field.KindChar, Enum: map[string]string{
		"0": "New", "1": "PartiallyFilled", "2": "Filled", "4": "Canceled", "8": "Rejected",
	}},
	{Tag: 40, Name: "OrdType", Kind: field.KindChar, Enum: map[string]string{
		"1": "Market", "2": "Limit", "3": "Stop", "4": "StopLimit",
	}},
	{Tag: 44, Name: "Price", Kind: field.KindDecimal},
	{Tag: 54, Name: "Side", Kind: field.KindChar, Enum: map[string]string{
		"1": "Buy", "2": "Sell",
	}},
	{Tag: 55, Name: "Symbol", Kind: field.KindString},
	{Tag: 59, Name: "TimeInForce", Kind: field.KindChar, Enum: map[string]string{
		"0": "Day", "1": "GTC", "3": "IOC", "4": "FOK",
	}},
	{Tag: 60, Name: "TransactTime", Kind: field.KindUTCTimestamp},
	{Tag: 64, Name: "SettlDate", Kind: field.KindLocalDate},
	{Tag: 150, Name: "ExecType", Kind: field.KindChar, Enum: map[string]string{
		"0": "New", "4": "Canceled", "8": "Rejected", "F": "Trade",
	}},
	{Tag: 151, Name: "LeavesQty", Kind: field.KindDecimal},
	{Tag: 381, Name: "GrossTradeAmt", Kind: field.KindAmount},

	// Market data.
	{Tag: 262, Name: "MDReqID", Kind: field.KindString},
	{Tag: 268, Name: "NoMDEntries", Kind: field.KindInt},
	{Tag: 269, Name: "MDEntryType", Kind: field.KindChar, Enum: map[string]string{
		"0": "Bid", "1": "Offer", "2": "Trade",
	}},
	{Tag: 270, Name: "MDEntryPx", Kind: field.KindDecimal},
	{Tag: 271, Name: "MDEntrySize", Kind: field.KindDecimal},
	{Tag: 273, Name: "MDEntryTime", Kind: field.KindLocalTime},
}

var fix44Components = []ComponentDef{
	{
		Name: HeaderComponent,
		Items: []Item{
			{Tag: TagSenderCompID, Required: true},
			{Tag: TagTargetCompID, Required: true},
			{Tag: TagMsgSeqNum, Required: true},
			{Tag: TagPossDupFlag},
			{Tag: TagSendingTime, Required: true},
			{Tag: TagOrigSendingTime},
		},
	},
}

var mdEntriesGroup = &GroupDef{
	CountTag: 268,
	Items: []Item{
		{Tag: 269, Required: true},
		{Tag: 270},
		{Tag: 271},
		{Tag: 273},
	},
}

var fix44Messages = []MessageDef{
	{MsgType: MsgTypeHeartbeat, Name: "Heartbeat", Items: []Item{
		{Tag: TagTestReqID},
	}},
	{MsgType: MsgTypeTestRequest, Name: "TestRequest", Items: []Item{
		{Tag: TagTestReqID, Required: true},
	}},
	{MsgType: MsgTypeResendRequest, Name: "ResendRequest", Items: []Item{
		{Tag: TagBeginSeqNo, Required: true},
		{Tag: TagEndSeqNo, Required: true},
	}},
	{MsgType: MsgTypeReject, Name: "Reject", Items: []Item{
		{Tag: TagRefSeqNum, Required: true},
		{Tag: TagRefTagID},
		{Tag: TagRefMsgType},
		{Tag: TagSessionRejectReason},
		{Tag: TagText},
	}},
	{MsgType: MsgTypeSequenceReset, Name: "SequenceReset", Items: []Item{
		{Tag: TagGapFillFlag},
		{Tag: TagNewSeqNo, Required: true},
	}},
	{MsgType: MsgTypeLogout, Name: "Logout", Items: []Item{
		{Tag: TagText},
	}},
	{MsgType: MsgTypeLogon, Name: "Logon", Items: []Item{
		{Tag: TagEncryptMethod, Required: true},
		{Tag: TagHeartBtInt, Required: true},
		{Tag: TagResetSeqNumFlag},
		{Tag: TagRawDataLength},
		{Tag: TagRawData},
	}},
	{MsgType: "D", Name: "NewOrderSingle", Items: []Item{
		{Tag: 11, Required: true},
		{Tag: 55, Required: true},
		{Tag: 54, Required: true},
		{Tag: 60, Required: true},
		{Tag: 40, Required: true},
		{Tag: 38},
		{Tag: 44},
		{Tag: 59},
		{Tag: 15},
		{Tag: 64},
	}},
	{MsgType: "8", Name: "ExecutionReport", Items: []Item{
		{Tag: 37, Required: true},
		{Tag: 17, Required: true},
		{Tag: 150, Required: true},
		{Tag: 39, Required: true},
		{Tag: 55, Required: true},
		{Tag: 54, Required: true},
		{Tag: 151, Required: true},
		{Tag: 14, Required: true},
		{Tag: 6, Required: true},
		{Tag: 381},
		{Tag: TagText},
	}},
	{MsgType: "W", Name: "MarketDataSnapshotFullRefresh", Items: []Item{
		{Tag: 262},
		{Tag: 55, Required: true},
		{Group: mdEntriesGroup, Required: true},
	}},
}

// FIX44 builds the FIX 4.4 dictionary. The tables are static, so a build
// error is a programming defect; callers treat it as fatal at startup.
func FIX44() (*Dictionary, error) {
	return New("FIX.4.4", fix44Fields, fix44Components, fix44Messages)
}

// MustFIX44 is FIX44 for initialization paths that cannot proceed without it.
func MustFIX44() *Dictionary {
	d, err := FIX44()
	if err != nil {
		panic("dict: FIX 4.4 tables are inconsistent: " + err.Error())
	}
	return d
}
