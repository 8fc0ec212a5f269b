package usecase

import "time"

func (u *deliveryUC) SetClock(now func() time.Time)  { u.now = now }
func (u *schedulerUC) SetClock(now func() time.Time) { u.now = now }
func (u *paymentUC) SetClock(now func() time.Time)   { u.now = now }
