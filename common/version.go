/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

// Package common contains logging and versioning properties shared by the
// decoder subpackages.
package common

// Version is the decoder package version.
const Version = "0.1.0"
