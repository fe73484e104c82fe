/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package scale implements the compact binary encoding used for signed state changes and
// stored registry records.
//
// Integers are little-endian, variable-length values are prefixed with a compact integer and
// optional values are prefixed with a single presence byte.
package scale
