package extract

// extractionPrompt instructs the vision model to convert a page image into
// structured HTML, distinguishing genuinely tabular content from form-like
// and flowing text.
const extractionPrompt = `Analyze this document and convert it to properly formatted HTML with intelligent structure detection.

Key Requirements:
1. Structure Detection:
   - Identify if content is tabular/columnar or regular flowing text
   - Use tables ONLY for truly tabular content with clear columns and rows
   - For form-like content (label: value pairs), use flex layout without visible borders
   - For regular paragraphs and text, use simple <p> tags without any table structure
   - Preserve exact spacing and layout while using appropriate HTML elements

2. Document Elements:
   - Use semantic HTML: <article>, <section>, <header>, <p>, <table> as appropriate
   - Use <h1> through <h6> for hierarchical headings
   - For columns/forms without visible borders, use:
     <div class="form-row">
       <div class="label">Label:</div>
       <div class="value">Value</div>
     </div>
   - For actual tables with visible borders use:
     <table class="data-table">
       <tr><td>Content</td></tr>
     </table>

3. Specific Cases:
   A. Regular Text:
      <p>Regular paragraph text goes here without any table structure.</p>

   B. Form-like Content (no visible borders):
      <div class="form-section">
        <div class="form-row">
          <div class="label">Name:</div>
          <div class="value">John Smith</div>
        </div>
      </div>

   C. True Table Content:
      <table class="data-table">
        <tr>
          <th>Header 1</th>
          <th>Header 2</th>
        </tr>
        <tr>
          <td>Data 1</td>
          <td>Data 2</td>
        </tr>
      </table>

4. CSS Classes:
   - Use 'form-section' for form-like content
   - Use 'data-table' for true tables
   - Use 'text-content' for regular flowing text
   - Use 'index' for hierarchical index/outline numbers
   - Add 'no-borders' class to elements that shouldn't show borders

Analyze the content carefully and use the most appropriate structure for each section. Return only valid HTML.`

// pageStyle is the fixed presentational styling prepended to every
// extracted page that does not already carry a style block.
const pageStyle = `<style>
    .document {
        width: 100%;
        max-width: 1000px;
        margin: 0 auto;
        font-family: Arial, sans-serif;
        line-height: 1.5;
    }
    .text-content {
        margin-bottom: 1em;
    }
    .form-section {
        margin-bottom: 1em;
    }
    .form-row {
        display: flex;
        margin-bottom: 0.5em;
        gap: 1em;
    }
    .label {
        width: 200px;
        flex-shrink: 0;
    }
    .value {
        flex-grow: 1;
    }
    .data-table {
        width: 100%;
        border-collapse: collapse;
        margin-bottom: 1em;
    }
    .data-table:not(.no-borders) td,
    .data-table:not(.no-borders) th {
        border: 1px solid black;
        padding: 0.5em;
    }
    .no-borders td,
    .no-borders th {
        border: none !important;
    }
    .header {
        text-align: right;
        margin-bottom: 20px;
    }
</style>`
