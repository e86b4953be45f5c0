package micoreca

// Package micoreca is the tooling behind a community resource catalogue of
// microbiome bioinformatics software.
//
// Overview
//
// The system is comprised of the following component stages:
//
// 1. Environments
//
// Every installation happens inside an isolated environment: a
// self-contained directory tree holding a package set independent of
// anything installed system-wide.  Environments are created once, activated
// per shell session, and carry their own installed-state record.
//
// 2. Dependency installation
//
// A manifest file lists the required packages, optionally with version
// constraints:
//
//     samtools==1.17
//     bwa>=0.7
//     fastqc
//
// The installer resolves every requirement against the package index before
// touching the environment, so a manifest referencing an unknown package or
// an unsatisfiable constraint installs nothing at all.
//
// 3. Recipe collection
//
// The catalogue itself is seeded from recipe trees (one meta.yaml per
// package).  Recipes are rendered, parsed, filtered against a configurable
// keyword list, exported as JSON, and bulk-loaded into the local catalogue
// database for inspection with the ls/get/stats commands.
