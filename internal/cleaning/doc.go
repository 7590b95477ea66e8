// Package cleaning filters transaction candidates and accounts for every
// removed row.
//
// Rules run in a fixed order and a row is counted under the first rule it
// violates:
//
//  1. invalid_timestamp: the timestamp is missing or unparseable
//  2. invalid_amount: the amount is negative, NaN, infinite, or the quantity is negative
//  3. cancelled: the order id carries the cancellation prefix (optional)
//  4. duplicate: an identical row was already kept
//  5. outlier: the amount falls outside [Q1-k*IQR, Q3+k*IQR]
//
// The outlier pass is skipped when fewer than MinOutlierSample rows remain.
// It repeats on the survivors until a pass removes nothing, so cleaning an
// already-cleaned set removes no further rows.
package cleaning
