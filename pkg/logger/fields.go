package logger

import "go.uber.org/zap"

func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// TxnRef is the gateway transaction reference of a payment reservation.
func TxnRef(ref string) zap.Field { return zap.String("txn_ref", ref) }

func ReservationID(id string) zap.Field { return zap.String("reservation_id", id) }

func CustomerOrderID(id string) zap.Field { return zap.String("customer_order_id", id) }

// OwnerID is whoever holds an inventory reservation: a customer order id
// for COD, a payment reservation id otherwise.
func OwnerID(id string) zap.Field { return zap.String("owner_id", id) }

func BuyerID(id string) zap.Field { return zap.String("buyer_id", id) }
